package db

import (
	"context"
	"time"
)

const countOverlappingSeasons = `-- name: CountOverlappingSeasons :one
SELECT COUNT(*) FROM seasons
WHERE start_date < ?1 AND end_date > ?2
`

type CountOverlappingSeasonsParams struct {
	EndDate   time.Time
	StartDate time.Time
}

func (q *Queries) CountOverlappingSeasons(ctx context.Context, arg CountOverlappingSeasonsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countOverlappingSeasons, arg.EndDate, arg.StartDate)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createSeason = `-- name: CreateSeason :one
INSERT INTO seasons (name, start_date, end_date, created_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, start_date, end_date, created_at
`

type CreateSeasonParams struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

func (q *Queries) CreateSeason(ctx context.Context, arg CreateSeasonParams) (Season, error) {
	row := q.db.QueryRowContext(ctx, createSeason,
		arg.Name,
		arg.StartDate,
		arg.EndDate,
		arg.CreatedAt,
	)
	var i Season
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.CreatedAt,
	)
	return i, err
}

const getSeason = `-- name: GetSeason :one
SELECT id, name, start_date, end_date, created_at FROM seasons WHERE id = ?
`

func (q *Queries) GetSeason(ctx context.Context, id int64) (Season, error) {
	row := q.db.QueryRowContext(ctx, getSeason, id)
	var i Season
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.CreatedAt,
	)
	return i, err
}

const getSeasonAt = `-- name: GetSeasonAt :one
SELECT id, name, start_date, end_date, created_at FROM seasons
WHERE start_date <= ?1 AND end_date > ?1
ORDER BY start_date DESC
LIMIT 1
`

func (q *Queries) GetSeasonAt(ctx context.Context, at time.Time) (Season, error) {
	row := q.db.QueryRowContext(ctx, getSeasonAt, at)
	var i Season
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.CreatedAt,
	)
	return i, err
}

const listSeasons = `-- name: ListSeasons :many
SELECT id, name, start_date, end_date, created_at FROM seasons ORDER BY start_date DESC
`

func (q *Queries) ListSeasons(ctx context.Context) ([]Season, error) {
	rows, err := q.db.QueryContext(ctx, listSeasons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Season
	for rows.Next() {
		var i Season
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.StartDate,
			&i.EndDate,
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
