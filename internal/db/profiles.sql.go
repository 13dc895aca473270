package db

import (
	"context"
	"time"
)

const getPlayerProfile = `-- name: GetPlayerProfile :one
SELECT identity, name, max_rating, created_at, updated_at FROM player_profiles WHERE identity = ?
`

func (q *Queries) GetPlayerProfile(ctx context.Context, identity string) (PlayerProfile, error) {
	row := q.db.QueryRowContext(ctx, getPlayerProfile, identity)
	var i PlayerProfile
	err := row.Scan(
		&i.Identity,
		&i.Name,
		&i.MaxRating,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const raiseMaxRating = `-- name: RaiseMaxRating :execrows
UPDATE player_profiles SET max_rating = ?1, updated_at = ?2
WHERE identity = ?3 AND max_rating < ?1
`

type RaiseMaxRatingParams struct {
	Rating    int64
	UpdatedAt time.Time
	Identity  string
}

func (q *Queries) RaiseMaxRating(ctx context.Context, arg RaiseMaxRatingParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, raiseMaxRating, arg.Rating, arg.UpdatedAt, arg.Identity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertPlayerProfile = `-- name: UpsertPlayerProfile :exec
INSERT INTO player_profiles (identity, name, max_rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (identity) DO UPDATE SET
    name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE player_profiles.name END,
    updated_at = excluded.updated_at
`

type UpsertPlayerProfileParams struct {
	Identity  string
	Name      string
	MaxRating int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) UpsertPlayerProfile(ctx context.Context, arg UpsertPlayerProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayerProfile,
		arg.Identity,
		arg.Name,
		arg.MaxRating,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
