package db

import (
	"context"
	"time"
)

const applyPlayerSeasonDelta = `-- name: ApplyPlayerSeasonDelta :exec
UPDATE player_season_stats
SET rating = ?, kills = kills + ?, deaths = deaths + ?, teamkills = teamkills + ?,
    matches = matches + ?, wins = wins + ?, losses = losses + ?, updated_at = ?
WHERE player_identity = ? AND season_id = ?
`

type ApplyPlayerSeasonDeltaParams struct {
	Rating         int64
	Kills          int64
	Deaths         int64
	Teamkills      int64
	Matches        int64
	Wins           int64
	Losses         int64
	UpdatedAt      time.Time
	PlayerIdentity string
	SeasonID       int64
}

func (q *Queries) ApplyPlayerSeasonDelta(ctx context.Context, arg ApplyPlayerSeasonDeltaParams) error {
	_, err := q.db.ExecContext(ctx, applyPlayerSeasonDelta,
		arg.Rating,
		arg.Kills,
		arg.Deaths,
		arg.Teamkills,
		arg.Matches,
		arg.Wins,
		arg.Losses,
		arg.UpdatedAt,
		arg.PlayerIdentity,
		arg.SeasonID,
	)
	return err
}

const applySquadSeasonDelta = `-- name: ApplySquadSeasonDelta :exec
UPDATE squad_season_stats
SET rating = ?, kills = kills + ?, deaths = deaths + ?,
    matches = matches + ?, wins = wins + ?, losses = losses + ?, updated_at = ?
WHERE squad_id = ? AND season_id = ?
`

type ApplySquadSeasonDeltaParams struct {
	Rating    int64
	Kills     int64
	Deaths    int64
	Matches   int64
	Wins      int64
	Losses    int64
	UpdatedAt time.Time
	SquadID   int64
	SeasonID  int64
}

func (q *Queries) ApplySquadSeasonDelta(ctx context.Context, arg ApplySquadSeasonDeltaParams) error {
	_, err := q.db.ExecContext(ctx, applySquadSeasonDelta,
		arg.Rating,
		arg.Kills,
		arg.Deaths,
		arg.Matches,
		arg.Wins,
		arg.Losses,
		arg.UpdatedAt,
		arg.SquadID,
		arg.SeasonID,
	)
	return err
}

const ensurePlayerSeasonStats = `-- name: EnsurePlayerSeasonStats :exec
INSERT INTO player_season_stats (player_identity, season_id, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (player_identity, season_id) DO NOTHING
`

type EnsurePlayerSeasonStatsParams struct {
	PlayerIdentity string
	SeasonID       int64
	Rating         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (q *Queries) EnsurePlayerSeasonStats(ctx context.Context, arg EnsurePlayerSeasonStatsParams) error {
	_, err := q.db.ExecContext(ctx, ensurePlayerSeasonStats,
		arg.PlayerIdentity,
		arg.SeasonID,
		arg.Rating,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const ensureSquadSeasonStats = `-- name: EnsureSquadSeasonStats :exec
INSERT INTO squad_season_stats (squad_id, season_id, rating, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (squad_id, season_id) DO NOTHING
`

type EnsureSquadSeasonStatsParams struct {
	SquadID   int64
	SeasonID  int64
	Rating    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (q *Queries) EnsureSquadSeasonStats(ctx context.Context, arg EnsureSquadSeasonStatsParams) error {
	_, err := q.db.ExecContext(ctx, ensureSquadSeasonStats,
		arg.SquadID,
		arg.SeasonID,
		arg.Rating,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getPlayerSeasonStats = `-- name: GetPlayerSeasonStats :one
SELECT player_identity, season_id, rating, kills, deaths, teamkills, matches, wins, losses, created_at, updated_at
FROM player_season_stats WHERE player_identity = ? AND season_id = ?
`

type GetPlayerSeasonStatsParams struct {
	PlayerIdentity string
	SeasonID       int64
}

func (q *Queries) GetPlayerSeasonStats(ctx context.Context, arg GetPlayerSeasonStatsParams) (PlayerSeasonStat, error) {
	row := q.db.QueryRowContext(ctx, getPlayerSeasonStats, arg.PlayerIdentity, arg.SeasonID)
	var i PlayerSeasonStat
	err := row.Scan(
		&i.PlayerIdentity,
			&i.SeasonID,
			&i.Rating,
			&i.Kills,
			&i.Deaths,
			&i.Teamkills,
			&i.Matches,
			&i.Wins,
			&i.Losses,
			&i.CreatedAt,
			&i.UpdatedAt,
	)
	return i, err
}

const getSquadSeasonStats = `-- name: GetSquadSeasonStats :one
SELECT squad_id, season_id, rating, kills, deaths, matches, wins, losses, created_at, updated_at
FROM squad_season_stats WHERE squad_id = ? AND season_id = ?
`

type GetSquadSeasonStatsParams struct {
	SquadID  int64
	SeasonID int64
}

func (q *Queries) GetSquadSeasonStats(ctx context.Context, arg GetSquadSeasonStatsParams) (SquadSeasonStat, error) {
	row := q.db.QueryRowContext(ctx, getSquadSeasonStats, arg.SquadID, arg.SeasonID)
	var i SquadSeasonStat
	err := row.Scan(
		&i.SquadID,
		&i.SeasonID,
		&i.Rating,
		&i.Kills,
		&i.Deaths,
		&i.Matches,
		&i.Wins,
		&i.Losses,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPlayerStandings = `-- name: ListPlayerStandings :many
SELECT player_identity, season_id, rating, kills, deaths, teamkills, matches, wins, losses, created_at, updated_at
FROM player_season_stats WHERE season_id = ?
ORDER BY rating DESC, wins DESC, player_identity
LIMIT ?
`

type ListPlayerStandingsParams struct {
	SeasonID int64
	Limit    int64
}

func (q *Queries) ListPlayerStandings(ctx context.Context, arg ListPlayerStandingsParams) ([]PlayerSeasonStat, error) {
	rows, err := q.db.QueryContext(ctx, listPlayerStandings, arg.SeasonID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlayerSeasonStat
	for rows.Next() {
		var i PlayerSeasonStat
		if err := rows.Scan(
			&i.PlayerIdentity,
			&i.SeasonID,
			&i.Rating,
			&i.Kills,
			&i.Deaths,
			&i.Teamkills,
			&i.Matches,
			&i.Wins,
			&i.Losses,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const listSquadMemberRatings = `-- name: ListSquadMemberRatings :many
SELECT ps.rating
FROM player_season_stats ps
JOIN accounts a ON a.player_identity = ps.player_identity
JOIN squad_members sm ON sm.account_id = a.id
WHERE sm.squad_id = ? AND ps.season_id = ?
ORDER BY ps.player_identity
`

type ListSquadMemberRatingsParams struct {
	SquadID  int64
	SeasonID int64
}

func (q *Queries) ListSquadMemberRatings(ctx context.Context, arg ListSquadMemberRatingsParams) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listSquadMemberRatings, arg.SquadID, arg.SeasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var rating int64
		if err := rows.Scan(&rating); err != nil {
			return nil, err
		}
		items = append(items, rating)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
