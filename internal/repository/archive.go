package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type ArchiveRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewArchiveRepository(queries *db.Queries, logger zerolog.Logger) *ArchiveRepository {
	return &ArchiveRepository{
		queries: queries,
		logger:  logger.With().Str("component", "archive_repository").Logger(),
	}
}

// Put keeps the first body seen for a session id. Bodies without a session
// id are always stored.
func (r *ArchiveRepository) Put(ctx context.Context, sessionID string, body []byte, receivedAt time.Time) (bool, error) {
	id, err := gonanoid.New()
	if err != nil {
		return false, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	n, err := queriesFor(ctx, r.queries).InsertArchivedPayload(ctx, db.InsertArchivedPayloadParams{
		ID:         id,
		SessionID:  sql.NullString{String: sessionID, Valid: sessionID != ""},
		Body:       body,
		ReceivedAt: receivedAt.UTC(),
	})
	if err != nil {
		return false, MapSQLiteError(err)
	}
	return n > 0, nil
}

func (r *ArchiveRepository) List(ctx context.Context) ([]domain.ArchivedPayload, error) {
	rows, err := queriesFor(ctx, r.queries).ListArchivedPayloads(ctx)
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	out := make([]domain.ArchivedPayload, len(rows))
	for i, row := range rows {
		out[i] = domain.ArchivedPayload{
			ID:         row.ID,
			SessionID:  row.SessionID.String,
			Body:       row.Body,
			ReceivedAt: row.ReceivedAt,
		}
	}
	return out, nil
}

var _ ArchiveStore = (*ArchiveRepository)(nil)
