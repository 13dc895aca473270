package db

import (
	"context"
	"strings"
	"time"
)

const createKillEvent = `-- name: CreateKillEvent :exec
INSERT INTO kill_events (
    id, session_id, killer_identity, killer_entity, victim_identity, victim_entity,
    occurred_at, is_friendly_fire, is_suicide, processed, processed_session, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '', ?)
`

type CreateKillEventParams struct {
	ID             string
	SessionID      string
	KillerIdentity string
	KillerEntity   string
	VictimIdentity string
	VictimEntity   string
	OccurredAt     time.Time
	IsFriendlyFire bool
	IsSuicide      bool
	CreatedAt      time.Time
}

func (q *Queries) CreateKillEvent(ctx context.Context, arg CreateKillEventParams) error {
	_, err := q.db.ExecContext(ctx, createKillEvent,
		arg.ID,
		arg.SessionID,
		arg.KillerIdentity,
		arg.KillerEntity,
		arg.VictimIdentity,
		arg.VictimEntity,
		arg.OccurredAt,
		arg.IsFriendlyFire,
		arg.IsSuicide,
		arg.CreatedAt,
	)
	return err
}

const getKillEvent = `-- name: GetKillEvent :one
SELECT id, session_id, killer_identity, killer_entity, victim_identity, victim_entity,
       occurred_at, is_friendly_fire, is_suicide, processed, processed_session, created_at
FROM kill_events WHERE id = ?
`

func (q *Queries) GetKillEvent(ctx context.Context, id string) (KillEvent, error) {
	row := q.db.QueryRowContext(ctx, getKillEvent, id)
	var i KillEvent
	err := row.Scan(
		&i.ID,
			&i.SessionID,
			&i.KillerIdentity,
			&i.KillerEntity,
			&i.VictimIdentity,
			&i.VictimEntity,
			&i.OccurredAt,
			&i.IsFriendlyFire,
			&i.IsSuicide,
			&i.Processed,
			&i.ProcessedSession,
			&i.CreatedAt,
	)
	return i, err
}

const listPendingKillEvents = `-- name: ListPendingKillEvents :many
SELECT id, session_id, killer_identity, killer_entity, victim_identity, victim_entity,
       occurred_at, is_friendly_fire, is_suicide, processed, processed_session, created_at
FROM kill_events
WHERE processed = 0
  AND (session_id = ?1
       OR (session_id = '' AND occurred_at >= ?2 AND occurred_at <= ?3))
ORDER BY occurred_at, id
`

type ListPendingKillEventsParams struct {
	SessionID   string
	WindowStart time.Time
	WindowEnd   time.Time
}

func (q *Queries) ListPendingKillEvents(ctx context.Context, arg ListPendingKillEventsParams) ([]KillEvent, error) {
	rows, err := q.db.QueryContext(ctx, listPendingKillEvents, arg.SessionID, arg.WindowStart, arg.WindowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KillEvent
	for rows.Next() {
		var i KillEvent
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.KillerIdentity,
			&i.KillerEntity,
			&i.VictimIdentity,
			&i.VictimEntity,
			&i.OccurredAt,
			&i.IsFriendlyFire,
			&i.IsSuicide,
			&i.Processed,
			&i.ProcessedSession,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markKillEventsProcessed = `-- name: MarkKillEventsProcessed :execrows
UPDATE kill_events SET processed = 1, processed_session = ?
WHERE processed = 0 AND id IN (/*SLICE:ids*/?)
`

type MarkKillEventsProcessedParams struct {
	ProcessedSession string
	Ids              []string
}

func (q *Queries) MarkKillEventsProcessed(ctx context.Context, arg MarkKillEventsProcessedParams) (int64, error) {
	query := markKillEventsProcessed
	var queryParams []interface{}
	queryParams = append(queryParams, arg.ProcessedSession)
	if len(arg.Ids) > 0 {
		for _, v := range arg.Ids {
			queryParams = append(queryParams, v)
		}
		query = strings.Replace(query, "/*SLICE:ids*/?", strings.Repeat(",?", len(arg.Ids))[1:], 1)
	} else {
		query = strings.Replace(query, "/*SLICE:ids*/?", "NULL", 1)
	}
	result, err := q.db.ExecContext(ctx, query, queryParams...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
