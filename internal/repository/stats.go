package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type StatsRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewStatsRepository(queries *db.Queries, logger zerolog.Logger) *StatsRepository {
	return &StatsRepository{
		queries: queries,
		logger:  logger.With().Str("component", "stats_repository").Logger(),
	}
}

// EnsurePlayer lazily creates the season row at the default rating.
func (r *StatsRepository) EnsurePlayer(ctx context.Context, identity string, seasonID int64) error {
	now := time.Now().UTC()
	err := queriesFor(ctx, r.queries).EnsurePlayerSeasonStats(ctx, db.EnsurePlayerSeasonStatsParams{
		PlayerIdentity: identity,
		SeasonID:       seasonID,
		Rating:         domain.DefaultRating,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	return MapSQLiteError(err)
}

// PlayerRatings reads the current season rating of every identity. Players
// without a row are reported at the default rating.
func (r *StatsRepository) PlayerRatings(ctx context.Context, seasonID int64, identities []string) (map[string]int, error) {
	q := queriesFor(ctx, r.queries)
	ratings := make(map[string]int, len(identities))
	for _, identity := range identities {
		row, err := q.GetPlayerSeasonStats(ctx, db.GetPlayerSeasonStatsParams{
			PlayerIdentity: identity,
			SeasonID:       seasonID,
		})
		if errors.Is(err, sql.ErrNoRows) {
			ratings[identity] = domain.DefaultRating
			continue
		}
		if err != nil {
			return nil, MapSQLiteError(err)
		}
		ratings[identity] = int(row.Rating)
	}
	return ratings, nil
}

func (r *StatsRepository) GetPlayer(ctx context.Context, identity string, seasonID int64) (domain.PlayerSeasonStats, error) {
	row, err := queriesFor(ctx, r.queries).GetPlayerSeasonStats(ctx, db.GetPlayerSeasonStatsParams{
		PlayerIdentity: identity,
		SeasonID:       seasonID,
	})
	if err != nil {
		return domain.PlayerSeasonStats{}, MapSQLiteError(err)
	}
	return toPlayerSeasonStats(row), nil
}

func (r *StatsRepository) ApplyPlayer(ctx context.Context, seasonID int64, delta domain.PlayerSeasonDelta) error {
	err := queriesFor(ctx, r.queries).ApplyPlayerSeasonDelta(ctx, db.ApplyPlayerSeasonDeltaParams{
		Rating:         int64(delta.Rating),
		Kills:          int64(delta.Kills),
		Deaths:         int64(delta.Deaths),
		Teamkills:      int64(delta.Teamkills),
		Matches:        int64(delta.Matches),
		Wins:           int64(delta.Wins),
		Losses:         int64(delta.Losses),
		UpdatedAt:      time.Now().UTC(),
		PlayerIdentity: delta.PlayerIdentity,
		SeasonID:       seasonID,
	})
	return MapSQLiteError(err)
}

func (r *StatsRepository) Standings(ctx context.Context, seasonID int64, limit int) ([]domain.PlayerSeasonStats, error) {
	rows, err := queriesFor(ctx, r.queries).ListPlayerStandings(ctx, db.ListPlayerStandingsParams{
		SeasonID: seasonID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	standings := make([]domain.PlayerSeasonStats, len(rows))
	for i, row := range rows {
		standings[i] = toPlayerSeasonStats(row)
	}
	return standings, nil
}

func (r *StatsRepository) EnsureSquad(ctx context.Context, squadID, seasonID int64) error {
	now := time.Now().UTC()
	err := queriesFor(ctx, r.queries).EnsureSquadSeasonStats(ctx, db.EnsureSquadSeasonStatsParams{
		SquadID:   squadID,
		SeasonID:  seasonID,
		Rating:    domain.DefaultRating,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return MapSQLiteError(err)
}

// SquadMemberRatings returns the season ratings of the squad's current
// members that already have a season row.
func (r *StatsRepository) SquadMemberRatings(ctx context.Context, squadID, seasonID int64) ([]int, error) {
	rows, err := queriesFor(ctx, r.queries).ListSquadMemberRatings(ctx, db.ListSquadMemberRatingsParams{
		SquadID:  squadID,
		SeasonID: seasonID,
	})
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	ratings := make([]int, len(rows))
	for i, v := range rows {
		ratings[i] = int(v)
	}
	return ratings, nil
}

func (r *StatsRepository) GetSquad(ctx context.Context, squadID, seasonID int64) (domain.SquadSeasonStats, error) {
	row, err := queriesFor(ctx, r.queries).GetSquadSeasonStats(ctx, db.GetSquadSeasonStatsParams{
		SquadID:  squadID,
		SeasonID: seasonID,
	})
	if err != nil {
		return domain.SquadSeasonStats{}, MapSQLiteError(err)
	}
	return domain.SquadSeasonStats{
		SquadID:   row.SquadID,
		SeasonID:  row.SeasonID,
		Rating:    int(row.Rating),
		Kills:     int(row.Kills),
		Deaths:    int(row.Deaths),
		Matches:   int(row.Matches),
		Wins:      int(row.Wins),
		Losses:    int(row.Losses),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *StatsRepository) ApplySquad(ctx context.Context, seasonID int64, delta domain.SquadSeasonDelta) error {
	err := queriesFor(ctx, r.queries).ApplySquadSeasonDelta(ctx, db.ApplySquadSeasonDeltaParams{
		Rating:    int64(delta.Rating),
		Kills:     int64(delta.Kills),
		Deaths:    int64(delta.Deaths),
		Matches:   int64(delta.Matches),
		Wins:      int64(delta.Wins),
		Losses:    int64(delta.Losses),
		UpdatedAt: time.Now().UTC(),
		SquadID:   delta.SquadID,
		SeasonID:  seasonID,
	})
	return MapSQLiteError(err)
}

func toPlayerSeasonStats(row db.PlayerSeasonStat) domain.PlayerSeasonStats {
	return domain.PlayerSeasonStats{
		PlayerIdentity: row.PlayerIdentity,
		SeasonID:       row.SeasonID,
		Rating:         int(row.Rating),
		Kills:          int(row.Kills),
		Deaths:         int(row.Deaths),
		Teamkills:      int(row.Teamkills),
		Matches:        int(row.Matches),
		Wins:           int(row.Wins),
		Losses:         int(row.Losses),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

var _ StatsStore = (*StatsRepository)(nil)
