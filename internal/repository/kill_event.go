package repository

import (
	"context"
	"fmt"
	"time"

	"squad-ladder/internal/constants"
	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type KillEventRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewKillEventRepository(queries *db.Queries, logger zerolog.Logger) *KillEventRepository {
	return &KillEventRepository{
		queries: queries,
		logger:  logger.With().Str("component", "kill_event_repository").Logger(),
	}
}

func (r *KillEventRepository) Create(ctx context.Context, event domain.KillEvent) error {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err := queriesFor(ctx, r.queries).CreateKillEvent(ctx, db.CreateKillEventParams{
		ID:             event.ID,
		SessionID:      event.SessionID,
		KillerIdentity: event.KillerIdentity,
		KillerEntity:   event.KillerEntity,
		VictimIdentity: event.VictimIdentity,
		VictimEntity:   event.VictimEntity,
		OccurredAt:     event.OccurredAt.UTC(),
		IsFriendlyFire: event.IsFriendlyFire,
		IsSuicide:      event.IsSuicide,
		CreatedAt:      createdAt.UTC(),
	})
	return MapSQLiteError(err)
}

func (r *KillEventRepository) Pending(ctx context.Context, sessionID string, from, to time.Time) ([]domain.KillEvent, error) {
	rows, err := queriesFor(ctx, r.queries).ListPendingKillEvents(ctx, db.ListPendingKillEventsParams{
		SessionID:   sessionID,
		WindowStart: from.UTC(),
		WindowEnd:   to.UTC(),
	})
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	events := make([]domain.KillEvent, len(rows))
	for i, row := range rows {
		events[i] = toKillEvent(row)
	}
	return events, nil
}

// MarkProcessed claims ids in batches of DBBatchSize. Every row must flip,
// otherwise another match got there first.
func (r *KillEventRepository) MarkProcessed(ctx context.Context, sessionID string, ids []string) error {
	q := queriesFor(ctx, r.queries)
	for start := 0; start < len(ids); start += constants.DBBatchSize {
		batch := ids[start:min(start+constants.DBBatchSize, len(ids))]
		n, err := q.MarkKillEventsProcessed(ctx, db.MarkKillEventsProcessedParams{
			ProcessedSession: sessionID,
			Ids:              batch,
		})
		if err != nil {
			return MapSQLiteError(err)
		}
		if n != int64(len(batch)) {
			return fmt.Errorf("%d of %d kill events already processed: %w", int64(len(batch))-n, len(batch), ErrTxConflict)
		}
	}
	if len(ids) > 0 {
		r.logger.Debug().Str("session_id", sessionID).Int("count", len(ids)).Msg("kill events marked processed")
	}
	return nil
}

func (r *KillEventRepository) Get(ctx context.Context, id string) (domain.KillEvent, error) {
	row, err := queriesFor(ctx, r.queries).GetKillEvent(ctx, id)
	if err != nil {
		return domain.KillEvent{}, MapSQLiteError(err)
	}
	return toKillEvent(row), nil
}

func toKillEvent(row db.KillEvent) domain.KillEvent {
	return domain.KillEvent{
		ID:               row.ID,
		SessionID:        row.SessionID,
		KillerIdentity:   row.KillerIdentity,
		KillerEntity:     row.KillerEntity,
		VictimIdentity:   row.VictimIdentity,
		VictimEntity:     row.VictimEntity,
		OccurredAt:       row.OccurredAt,
		IsFriendlyFire:   row.IsFriendlyFire,
		IsSuicide:        row.IsSuicide,
		Processed:        row.Processed,
		ProcessedSession: row.ProcessedSession,
		CreatedAt:        row.CreatedAt,
	}
}

var _ KillStore = (*KillEventRepository)(nil)
