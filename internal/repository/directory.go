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

type DirectoryRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewDirectoryRepository(queries *db.Queries, logger zerolog.Logger) *DirectoryRepository {
	return &DirectoryRepository{
		queries: queries,
		logger:  logger.With().Str("component", "directory_repository").Logger(),
	}
}

// Memberships resolves current membership for each identity. Identities
// without a linked account are absent from the result.
func (r *DirectoryRepository) Memberships(ctx context.Context, identities []string) (map[string]domain.Membership, error) {
	q := queriesFor(ctx, r.queries)
	out := make(map[string]domain.Membership, len(identities))
	for _, identity := range identities {
		row, err := q.GetMembershipByIdentity(ctx, identity)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, MapSQLiteError(err)
		}
		out[identity] = domain.Membership{
			AccountID:      row.AccountID,
			PlayerIdentity: row.PlayerIdentity,
			SquadID:        row.SquadID,
		}
	}
	return out, nil
}

func (r *DirectoryRepository) CreateSquad(ctx context.Context, name, tag string) (domain.Squad, error) {
	row, err := queriesFor(ctx, r.queries).CreateSquad(ctx, db.CreateSquadParams{
		Name:      name,
		Tag:       tag,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Squad{}, MapSQLiteError(err)
	}
	r.logger.Info().Int64("squad_id", row.ID).Str("name", name).Msg("squad created")
	return toSquad(row), nil
}

func (r *DirectoryRepository) GetSquad(ctx context.Context, id int64) (domain.Squad, error) {
	row, err := queriesFor(ctx, r.queries).GetSquad(ctx, id)
	if err != nil {
		return domain.Squad{}, MapSQLiteError(err)
	}
	return toSquad(row), nil
}

func (r *DirectoryRepository) Link(ctx context.Context, accountID int64, identity string, squadID int64) error {
	q := queriesFor(ctx, r.queries)
	now := time.Now().UTC()

	if err := q.UpsertAccount(ctx, db.UpsertAccountParams{
		ID:             accountID,
		PlayerIdentity: identity,
		CreatedAt:      now,
	}); err != nil {
		return MapSQLiteError(err)
	}

	if squadID == 0 {
		return MapSQLiteError(q.DeleteSquadMember(ctx, accountID))
	}
	return MapSQLiteError(q.UpsertSquadMember(ctx, db.UpsertSquadMemberParams{
		AccountID: accountID,
		SquadID:   squadID,
		JoinedAt:  now,
	}))
}

func toSquad(row db.Squad) domain.Squad {
	return domain.Squad{
		ID:        row.ID,
		Name:      row.Name,
		Tag:       row.Tag,
		CreatedAt: row.CreatedAt,
	}
}

var _ DirectoryStore = (*DirectoryRepository)(nil)
