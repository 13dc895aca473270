package repository

import (
	"context"
	"time"

	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type ResultRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewResultRepository(queries *db.Queries, logger zerolog.Logger) *ResultRepository {
	return &ResultRepository{
		queries: queries,
		logger:  logger.With().Str("component", "result_repository").Logger(),
	}
}

func (r *ResultRepository) SessionIdentities(ctx context.Context, sessionID string) (map[string]struct{}, error) {
	identities, err := queriesFor(ctx, r.queries).ListSessionIdentities(ctx, sessionID)
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	seen := make(map[string]struct{}, len(identities))
	for _, id := range identities {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// Create inserts an immutable result. A second insert for the same
// (identity, session) pair fails with ErrAlreadyExists.
func (r *ResultRepository) Create(ctx context.Context, result domain.PlayerResult) error {
	createdAt := result.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err := queriesFor(ctx, r.queries).CreatePlayerResult(ctx, db.CreatePlayerResultParams{
		PlayerIdentity: result.PlayerIdentity,
		SessionID:      result.SessionID,
		Result:         string(result.Result),
		Faction:        result.Faction,
		Kills:          int64(result.Kills),
		Deaths:         int64(result.Deaths),
		Teamkills:      int64(result.Teamkills),
		PlayedAt:       result.PlayedAt.UTC(),
		CreatedAt:      createdAt.UTC(),
	})
	return MapSQLiteError(err)
}

func (r *ResultRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.PlayerResult, error) {
	rows, err := queriesFor(ctx, r.queries).ListResultsBySession(ctx, sessionID)
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	results := make([]domain.PlayerResult, len(rows))
	for i, row := range rows {
		results[i] = domain.PlayerResult{
			PlayerIdentity: row.PlayerIdentity,
			SessionID:      row.SessionID,
			Result:         domain.Result(row.Result),
			Faction:        row.Faction,
			Kills:          int(row.Kills),
			Deaths:         int(row.Deaths),
			Teamkills:      int(row.Teamkills),
			PlayedAt:       row.PlayedAt,
			CreatedAt:      row.CreatedAt,
		}
	}
	return results, nil
}

var _ ResultStore = (*ResultRepository)(nil)
