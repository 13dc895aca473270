package db

import (
	"context"
	"time"
)

const createPlayerResult = `-- name: CreatePlayerResult :exec
INSERT INTO player_results (
    player_identity, session_id, result, faction, kills, deaths, teamkills, played_at, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreatePlayerResultParams struct {
	PlayerIdentity string
	SessionID      string
	Result         string
	Faction        string
	Kills          int64
	Deaths         int64
	Teamkills      int64
	PlayedAt       time.Time
	CreatedAt      time.Time
}

func (q *Queries) CreatePlayerResult(ctx context.Context, arg CreatePlayerResultParams) error {
	_, err := q.db.ExecContext(ctx, createPlayerResult,
		arg.PlayerIdentity,
		arg.SessionID,
		arg.Result,
		arg.Faction,
		arg.Kills,
		arg.Deaths,
		arg.Teamkills,
		arg.PlayedAt,
		arg.CreatedAt,
	)
	return err
}

const listResultsBySession = `-- name: ListResultsBySession :many
SELECT player_identity, session_id, result, faction, kills, deaths, teamkills, played_at, created_at
FROM player_results WHERE session_id = ? ORDER BY player_identity
`

func (q *Queries) ListResultsBySession(ctx context.Context, sessionID string) ([]PlayerResult, error) {
	rows, err := q.db.QueryContext(ctx, listResultsBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerResult
	for rows.Next() {
		var i PlayerResult
		if err := rows.Scan(
			&i.PlayerIdentity,
			&i.SessionID,
			&i.Result,
			&i.Faction,
			&i.Kills,
			&i.Deaths,
			&i.Teamkills,
			&i.PlayedAt,
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

const listSessionIdentities = `-- name: ListSessionIdentities :many
SELECT player_identity FROM player_results WHERE session_id = ?
`

func (q *Queries) ListSessionIdentities(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listSessionIdentities, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var player_identity string
		if err := rows.Scan(&player_identity); err != nil {
			return nil, err
		}
		items = append(items, player_identity)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
