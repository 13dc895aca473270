package db

import (
	"context"
	"database/sql"
	"time"
)

const insertArchivedPayload = `-- name: InsertArchivedPayload :execrows
INSERT INTO payload_archive (id, session_id, body, received_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (session_id) DO NOTHING
`

type InsertArchivedPayloadParams struct {
	ID         string
	SessionID  sql.NullString
	Body       []byte
	ReceivedAt time.Time
}

func (q *Queries) InsertArchivedPayload(ctx context.Context, arg InsertArchivedPayloadParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertArchivedPayload,
		arg.ID,
		arg.SessionID,
		arg.Body,
		arg.ReceivedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listArchivedPayloads = `-- name: ListArchivedPayloads :many
SELECT id, session_id, body, received_at FROM payload_archive ORDER BY received_at, id
`

func (q *Queries) ListArchivedPayloads(ctx context.Context) ([]PayloadArchive, error) {
	rows, err := q.db.QueryContext(ctx, listArchivedPayloads)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PayloadArchive
	for rows.Next() {
		var i PayloadArchive
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.Body,
			&i.ReceivedAt,
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
