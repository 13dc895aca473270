package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"squad-ladder/internal/constants"
	"squad-ladder/internal/payload"
	"squad-ladder/internal/repository"
	"squad-ladder/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

const (
	IngestMatchProcedure  = "/ladder.v1.LadderService/IngestMatch"
	IngestKillProcedure   = "/ladder.v1.LadderService/IngestKill"
	GetStandingsProcedure = "/ladder.v1.LadderService/GetStandings"
	HealthPath            = "/healthz"

	// FieldErrorHeader carries one "field: message" per invalid field.
	FieldErrorHeader = "Field-Error"
)

type IngestMatchResponse struct {
	Accepted      bool   `json:"accepted"`
	SessionID     string `json:"session_id"`
	Duplicate     bool   `json:"duplicate"`
	State         string `json:"state"`
	Participants  int    `json:"participants"`
	Skipped       int    `json:"skipped"`
	SeasonID      int64  `json:"season_id,omitempty"`
	Winner        string `json:"winner,omitempty"`
	Corrected     bool   `json:"corrected"`
	BufferedKills int    `json:"buffered_kills"`
}

type StandingsRequest struct {
	SeasonID int64 `json:"season_id"`
	Limit    int   `json:"limit"`
}

type Season struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type Standing struct {
	Rank           int     `json:"rank"`
	PlayerIdentity string  `json:"player_identity"`
	Name           string  `json:"name"`
	Rating         int     `json:"rating"`
	MaxRating      int     `json:"max_rating"`
	Matches        int     `json:"matches"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Kills          int     `json:"kills"`
	Deaths         int     `json:"deaths"`
	Teamkills      int     `json:"teamkills"`
	KDRatio        float32 `json:"kd_ratio"`
}

type StandingsResponse struct {
	Season    Season     `json:"season"`
	Standings []Standing `json:"standings"`
}

type LadderServer struct {
	ingest *service.IngestService
	ladder *service.LadderService
	db     *sql.DB
	logger zerolog.Logger
}

func NewLadderServer(ingest *service.IngestService, ladder *service.LadderService, db *sql.DB, logger zerolog.Logger) *LadderServer {
	return &LadderServer{
		ingest: ingest,
		ladder: ladder,
		db:     db,
		logger: logger.With().Str("module", "server").Logger(),
	}
}

// Routes mounts every procedure and the health check on one mux.
func (s *LadderServer) Routes() *http.ServeMux {
	opts := []connect.HandlerOption{
		connect.WithCodec(JSONCodec{}),
		connect.WithReadMaxBytes(constants.MaxPayloadBytes),
	}

	mux := http.NewServeMux()
	mux.Handle(IngestMatchProcedure, connect.NewUnaryHandler(IngestMatchProcedure, s.IngestMatch, opts...))
	mux.Handle(IngestKillProcedure, connect.NewUnaryHandler(IngestKillProcedure, s.IngestKill, opts...))
	mux.Handle(GetStandingsProcedure, connect.NewUnaryHandler(GetStandingsProcedure, s.GetStandings, opts...))
	mux.HandleFunc(HealthPath, s.Health)
	return mux
}

func (s *LadderServer) IngestMatch(ctx context.Context, req *connect.Request[json.RawMessage]) (*connect.Response[IngestMatchResponse], error) {
	res, err := s.ingest.IngestMatch(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&IngestMatchResponse{
		Accepted:      res.Accepted,
		SessionID:     res.SessionID,
		Duplicate:     res.Duplicate,
		State:         string(res.State),
		Participants:  res.Participants,
		Skipped:       res.Skipped,
		SeasonID:      res.SeasonID,
		Winner:        res.Winner,
		Corrected:     res.Corrected,
		BufferedKills: res.BufferedKills,
	}), nil
}

func (s *LadderServer) IngestKill(ctx context.Context, req *connect.Request[service.KillEventInput]) (*connect.Response[service.KillAck], error) {
	ack, err := s.ingest.IngestKill(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ack), nil
}

func (s *LadderServer) GetStandings(ctx context.Context, req *connect.Request[StandingsRequest]) (*connect.Response[StandingsResponse], error) {
	season, rows, err := s.ladder.Standings(ctx, req.Msg.SeasonID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &StandingsResponse{
		Season: Season{
			ID:        season.ID,
			Name:      season.Name,
			StartDate: season.StartDate.Format(time.RFC3339),
			EndDate:   season.EndDate.Format(time.RFC3339),
		},
		Standings: make([]Standing, 0, len(rows)),
	}
	for i, r := range rows {
		resp.Standings = append(resp.Standings, Standing{
			Rank:           i + 1,
			PlayerIdentity: r.PlayerIdentity,
			Name:           r.Name,
			Rating:         r.Rating,
			MaxRating:      r.MaxRating,
			Matches:        r.Matches,
			Wins:           r.Wins,
			Losses:         r.Losses,
			Kills:          r.Kills,
			Deaths:         r.Deaths,
			Teamkills:      r.Teamkills,
			KDRatio:        calculateKD(r.Kills, r.Deaths),
		})
	}
	return connect.NewResponse(resp), nil
}

func (s *LadderServer) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func calculateKD(kills, deaths int) float32 {
	if deaths == 0 {
		return float32(kills)
	}
	return float32(kills) / float32(deaths)
}

func toConnectError(err error) *connect.Error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, payload.ErrMalformedPayload):
		code = connect.CodeInvalidArgument
	case errors.Is(err, repository.ErrTxConflict):
		code = connect.CodeAborted
	case errors.Is(err, service.ErrNoActiveSeason):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, repository.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}

	cerr := connect.NewError(code, err)
	for _, f := range payload.FieldErrors(err) {
		cerr.Meta().Add(FieldErrorHeader, f.Field+": "+f.Message)
	}
	return cerr
}
