package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type SeasonRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewSeasonRepository(queries *db.Queries, logger zerolog.Logger) *SeasonRepository {
	return &SeasonRepository{
		queries: queries,
		logger:  logger.With().Str("component", "season_repository").Logger(),
	}
}

// Create rejects windows that overlap an existing season so that at most
// one season is current at any instant.
func (r *SeasonRepository) Create(ctx context.Context, name string, start, end time.Time) (domain.Season, error) {
	start, end = start.UTC(), end.UTC()
	if !end.After(start) {
		return domain.Season{}, fmt.Errorf("season %q ends before it starts: %w", name, ErrConflict)
	}

	q := queriesFor(ctx, r.queries)
	overlapping, err := q.CountOverlappingSeasons(ctx, db.CountOverlappingSeasonsParams{
		EndDate:   end,
		StartDate: start,
	})
	if err != nil {
		return domain.Season{}, MapSQLiteError(err)
	}
	if overlapping > 0 {
		return domain.Season{}, fmt.Errorf("season %q overlaps %d existing season(s): %w", name, overlapping, ErrConflict)
	}

	row, err := q.CreateSeason(ctx, db.CreateSeasonParams{
		Name:      name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Season{}, MapSQLiteError(err)
	}

	r.logger.Info().Int64("season_id", row.ID).Str("name", name).Time("start", start).Time("end", end).Msg("season created")
	return toSeason(row), nil
}

func (r *SeasonRepository) Active(ctx context.Context, at time.Time) (*domain.Season, error) {
	row, err := queriesFor(ctx, r.queries).GetSeasonAt(ctx, at.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	season := toSeason(row)
	return &season, nil
}

func (r *SeasonRepository) Get(ctx context.Context, id int64) (domain.Season, error) {
	row, err := queriesFor(ctx, r.queries).GetSeason(ctx, id)
	if err != nil {
		return domain.Season{}, MapSQLiteError(err)
	}
	return toSeason(row), nil
}

func (r *SeasonRepository) List(ctx context.Context) ([]domain.Season, error) {
	rows, err := queriesFor(ctx, r.queries).ListSeasons(ctx)
	if err != nil {
		return nil, MapSQLiteError(err)
	}
	seasons := make([]domain.Season, len(rows))
	for i, row := range rows {
		seasons[i] = toSeason(row)
	}
	return seasons, nil
}

func toSeason(row db.Season) domain.Season {
	return domain.Season{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		CreatedAt: row.CreatedAt,
	}
}

var _ SeasonStore = (*SeasonRepository)(nil)
