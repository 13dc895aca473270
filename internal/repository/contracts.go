package repository

import (
	"context"
	"time"

	"squad-ladder/internal/domain"
)

// TxFunc is the unit of work executed within a transaction boundary.
type TxFunc func(ctx context.Context) error

type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type SeasonStore interface {
	Create(ctx context.Context, name string, start, end time.Time) (domain.Season, error)
	// Active returns nil when no season covers at.
	Active(ctx context.Context, at time.Time) (*domain.Season, error)
	Get(ctx context.Context, id int64) (domain.Season, error)
	List(ctx context.Context) ([]domain.Season, error)
}

type ResultStore interface {
	SessionIdentities(ctx context.Context, sessionID string) (map[string]struct{}, error)
	Create(ctx context.Context, result domain.PlayerResult) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.PlayerResult, error)
}

type KillStore interface {
	Create(ctx context.Context, event domain.KillEvent) error
	// Pending lists unprocessed kills tagged with sessionID, plus untagged
	// kills that occurred inside [from, to].
	Pending(ctx context.Context, sessionID string, from, to time.Time) ([]domain.KillEvent, error)
	// MarkProcessed flips each event exactly once. Losing the flip on any
	// event fails with ErrTxConflict.
	MarkProcessed(ctx context.Context, sessionID string, ids []string) error
	Get(ctx context.Context, id string) (domain.KillEvent, error)
}

type StatsStore interface {
	EnsurePlayer(ctx context.Context, identity string, seasonID int64) error
	PlayerRatings(ctx context.Context, seasonID int64, identities []string) (map[string]int, error)
	GetPlayer(ctx context.Context, identity string, seasonID int64) (domain.PlayerSeasonStats, error)
	ApplyPlayer(ctx context.Context, seasonID int64, delta domain.PlayerSeasonDelta) error
	Standings(ctx context.Context, seasonID int64, limit int) ([]domain.PlayerSeasonStats, error)

	EnsureSquad(ctx context.Context, squadID, seasonID int64) error
	SquadMemberRatings(ctx context.Context, squadID, seasonID int64) ([]int, error)
	GetSquad(ctx context.Context, squadID, seasonID int64) (domain.SquadSeasonStats, error)
	ApplySquad(ctx context.Context, seasonID int64, delta domain.SquadSeasonDelta) error
}

// DirectoryStore is the account/squad lookup. The ingestion path only reads it.
type DirectoryStore interface {
	Memberships(ctx context.Context, identities []string) (map[string]domain.Membership, error)
	CreateSquad(ctx context.Context, name, tag string) (domain.Squad, error)
	GetSquad(ctx context.Context, id int64) (domain.Squad, error)
	// Link binds identity to accountID and moves the account into squadID.
	// A zero squadID removes the account from its squad.
	Link(ctx context.Context, accountID int64, identity string, squadID int64) error
}

type ProfileStore interface {
	Touch(ctx context.Context, identity, name string) error
	RaiseMaxRating(ctx context.Context, identity string, rating int) (bool, error)
	Get(ctx context.Context, identity string) (domain.PlayerProfile, error)
}

type ArchiveStore interface {
	// Put stores body once per session id and reports whether it was new.
	Put(ctx context.Context, sessionID string, body []byte, receivedAt time.Time) (bool, error)
	List(ctx context.Context) ([]domain.ArchivedPayload, error)
}
