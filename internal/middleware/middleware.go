package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	GameServerKey contextKey = "game_server"

	RequestIDHeader  = "X-Request-ID"
	GameServerHeader = "X-Game-Server"
)

// https://github.com/gin-contrib/requestid
func RequestID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			logCtx := logger.With().Str("request_id", requestID)

			// Game servers identify themselves so logs can be traced per host.
			if gs := r.Header.Get(GameServerHeader); gs != "" {
				ctx = context.WithValue(ctx, GameServerKey, gs)
				logCtx = logCtx.Str("game_server", gs)
			}

			reqLogger := logCtx.Logger()
			ctx = reqLogger.WithContext(ctx)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request started")

			next.ServeHTTP(w, r.WithContext(ctx))

			duration := time.Since(start)
			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int64("duration_ms", duration.Milliseconds()).
				Dur("duration", duration).
				Msg("request completed")
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func GetGameServer(ctx context.Context) string {
	if gs, ok := ctx.Value(GameServerKey).(string); ok {
		return gs
	}
	return ""
}
