package archive

import (
	"context"
	"fmt"
	"time"

	"squad-ladder/internal/constants"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// HTTPSink forwards raw bodies to an external archive. The remote answers
// 409 for a session it already holds.
type HTTPSink struct {
	url    string
	token  string
	client *fasthttp.Client
	logger zerolog.Logger
}

func NewHTTPSink(url, token string, logger zerolog.Logger) *HTTPSink {
	return &HTTPSink{
		url:   url,
		token: token,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ArchiveTimeout,
			WriteTimeout:        constants.ArchiveTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Archive(ctx context.Context, rec Record) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("X-Session-ID", rec.SessionID)
	req.Header.Set("X-Received-At", rec.ReceivedAt.UTC().Format(time.RFC3339Nano))
	if rec.GameServer != "" {
		req.Header.Set("X-Game-Server", rec.GameServer)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.SetBody(rec.Body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ArchiveTimeout)
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("archive request failed: %w", err)
	}

	switch code := resp.StatusCode(); {
	case code == fasthttp.StatusConflict:
		s.logger.Debug().Str("session_id", rec.SessionID).Msg("remote archive already holds session")
		return nil
	case code < 200 || code >= 300:
		return fmt.Errorf("archive error: %d", code)
	}
	return nil
}
