package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"squad-ladder/internal/constants"
	"squad-ladder/internal/domain"
	"squad-ladder/internal/repository"

	"github.com/rs/zerolog"
)

// LadderService covers the operator side: seasons, squads, directory links,
// standings and archive replay.
type LadderService struct {
	seasons   repository.SeasonStore
	stats     repository.StatsStore
	directory repository.DirectoryStore
	profiles  repository.ProfileStore
	archive   repository.ArchiveStore
	ingest    *IngestService
	clock     Clock
	logger    zerolog.Logger
}

func NewLadderService(
	seasons repository.SeasonStore,
	stats repository.StatsStore,
	directory repository.DirectoryStore,
	profiles repository.ProfileStore,
	archive repository.ArchiveStore,
	ingest *IngestService,
	clock Clock,
	logger zerolog.Logger,
) *LadderService {
	if clock == nil {
		clock = time.Now
	}
	return &LadderService{
		seasons:   seasons,
		stats:     stats,
		directory: directory,
		profiles:  profiles,
		archive:   archive,
		ingest:    ingest,
		clock:     clock,
		logger:    logger.With().Str("module", "service").Str("component", "ladder").Logger(),
	}
}

func (s *LadderService) CreateSeason(ctx context.Context, name string, start, end time.Time) (domain.Season, error) {
	season, err := s.seasons.Create(ctx, name, start, end)
	if err != nil {
		return domain.Season{}, fmt.Errorf("failed to create season: %w", err)
	}
	return season, nil
}

func (s *LadderService) ListSeasons(ctx context.Context) ([]domain.Season, error) {
	return s.seasons.List(ctx)
}

func (s *LadderService) CreateSquad(ctx context.Context, name, tag string) (domain.Squad, error) {
	squad, err := s.directory.CreateSquad(ctx, name, tag)
	if err != nil {
		return domain.Squad{}, fmt.Errorf("failed to create squad: %w", err)
	}
	return squad, nil
}

// Link binds a player identity to an account and optionally a squad.
func (s *LadderService) Link(ctx context.Context, accountID int64, identity string, squadID int64) error {
	if squadID != 0 {
		if _, err := s.directory.GetSquad(ctx, squadID); err != nil {
			return fmt.Errorf("squad %d: %w", squadID, err)
		}
	}
	if err := s.directory.Link(ctx, accountID, identity, squadID); err != nil {
		return fmt.Errorf("failed to link %s: %w", identity, err)
	}
	s.logger.Info().Int64("account_id", accountID).Str("identity", identity).Int64("squad_id", squadID).Msg("identity linked")
	return nil
}

type Standing struct {
	domain.PlayerSeasonStats
	Name      string
	MaxRating int
}

// Standings lists the leaderboard of seasonID, or of the current season
// when seasonID is 0.
func (s *LadderService) Standings(ctx context.Context, seasonID int64, limit int) (domain.Season, []Standing, error) {
	if limit <= 0 {
		limit = constants.StandingsDefaultLimit
	}

	var season domain.Season
	if seasonID == 0 {
		active, err := s.seasons.Active(ctx, s.clock())
		if err != nil {
			return domain.Season{}, nil, err
		}
		if active == nil {
			return domain.Season{}, nil, ErrNoActiveSeason
		}
		season = *active
	} else {
		var err error
		if season, err = s.seasons.Get(ctx, seasonID); err != nil {
			return domain.Season{}, nil, fmt.Errorf("season %d: %w", seasonID, err)
		}
	}

	rows, err := s.stats.Standings(ctx, season.ID, limit)
	if err != nil {
		return domain.Season{}, nil, fmt.Errorf("failed to load standings: %w", err)
	}
	out := make([]Standing, len(rows))
	for i, row := range rows {
		out[i] = Standing{PlayerSeasonStats: row}
		profile, err := s.profiles.Get(ctx, row.PlayerIdentity)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return domain.Season{}, nil, fmt.Errorf("failed to load profile %s: %w", row.PlayerIdentity, err)
		default:
			out[i].Name = profile.Name
			out[i].MaxRating = profile.MaxRating
		}
	}
	return season, out, nil
}

type ReplaySummary struct {
	Total      int
	Ingested   int
	Duplicates int
	Failed     int
}

// Replay re-ingests every archived body. Idempotency makes this safe to run
// at any time.
func (s *LadderService) Replay(ctx context.Context) (ReplaySummary, error) {
	records, err := s.archive.List(ctx)
	if err != nil {
		return ReplaySummary{}, fmt.Errorf("failed to list archive: %w", err)
	}

	summary := ReplaySummary{Total: len(records)}
	for _, rec := range records {
		res, err := s.ingest.Reingest(ctx, rec.Body)
		switch {
		case err != nil:
			summary.Failed++
			s.logger.Warn().Err(err).Str("archive_id", rec.ID).Msg("replay failed")
		case res.Duplicate:
			summary.Duplicates++
		default:
			summary.Ingested++
		}
	}
	s.logger.Info().
		Int("total", summary.Total).
		Int("ingested", summary.Ingested).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Msg("archive replay finished")
	return summary, nil
}
