package repository

import (
	"context"
	"time"

	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type ProfileRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewProfileRepository(queries *db.Queries, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		queries: queries,
		logger:  logger.With().Str("component", "profile_repository").Logger(),
	}
}

// Touch creates the profile on first sighting. An empty name keeps the
// stored display name.
func (r *ProfileRepository) Touch(ctx context.Context, identity, name string) error {
	now := time.Now().UTC()
	err := queriesFor(ctx, r.queries).UpsertPlayerProfile(ctx, db.UpsertPlayerProfileParams{
		Identity:  identity,
		Name:      name,
		MaxRating: domain.DefaultRating,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return MapSQLiteError(err)
}

// RaiseMaxRating reports whether rating set a new all-time high.
func (r *ProfileRepository) RaiseMaxRating(ctx context.Context, identity string, rating int) (bool, error) {
	n, err := queriesFor(ctx, r.queries).RaiseMaxRating(ctx, db.RaiseMaxRatingParams{
		Rating:    int64(rating),
		UpdatedAt: time.Now().UTC(),
		Identity:  identity,
	})
	if err != nil {
		return false, MapSQLiteError(err)
	}
	return n > 0, nil
}

func (r *ProfileRepository) Get(ctx context.Context, identity string) (domain.PlayerProfile, error) {
	row, err := queriesFor(ctx, r.queries).GetPlayerProfile(ctx, identity)
	if err != nil {
		return domain.PlayerProfile{}, MapSQLiteError(err)
	}
	return domain.PlayerProfile{
		Identity:  row.Identity,
		Name:      row.Name,
		MaxRating: int(row.MaxRating),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

var _ ProfileStore = (*ProfileRepository)(nil)
