package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"squad-ladder/internal/archive"
	"squad-ladder/internal/attribution"
	"squad-ladder/internal/constants"
	"squad-ladder/internal/domain"
	"squad-ladder/internal/middleware"
	"squad-ladder/internal/outcome"
	"squad-ladder/internal/payload"
	"squad-ladder/internal/rating"
	"squad-ladder/internal/repository"
	"squad-ladder/internal/resolve"
	"squad-ladder/internal/rollup"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

type Clock func() time.Time

type Archiver interface {
	Archive(ctx context.Context, rec archive.Record) error
}

type Deps struct {
	Tx        repository.Transactor
	Seasons   repository.SeasonStore
	Results   repository.ResultStore
	Kills     repository.KillStore
	Stats     repository.StatsStore
	Directory repository.DirectoryStore
	Profiles  repository.ProfileStore
	Archiver  Archiver
	Clock     Clock
	Logger    zerolog.Logger

	KillWindow   time.Duration
	TxMaxRetries int
}

type IngestService struct {
	tx        repository.Transactor
	seasons   repository.SeasonStore
	results   repository.ResultStore
	kills     repository.KillStore
	stats     repository.StatsStore
	directory repository.DirectoryStore
	profiles  repository.ProfileStore
	archiver  Archiver
	clock     Clock
	logger    zerolog.Logger

	killWindow   time.Duration
	txMaxRetries int
}

func NewIngestService(d Deps) *IngestService {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}
	return &IngestService{
		tx:           d.Tx,
		seasons:      d.Seasons,
		results:      d.Results,
		kills:        d.Kills,
		stats:        d.Stats,
		directory:    d.Directory,
		profiles:     d.Profiles,
		archiver:     d.Archiver,
		clock:        clock,
		logger:       d.Logger.With().Str("module", "service").Str("component", "ingest").Logger(),
		killWindow:   d.KillWindow,
		txMaxRetries: d.TxMaxRetries,
	}
}

type IngestResult struct {
	Accepted      bool
	SessionID     string
	Duplicate     bool
	State         State
	Participants  int // players written by this call
	Skipped       int // players that already had a result for the session
	SeasonID      int64
	Winner        string
	Corrected     bool
	BufferedKills int
}

// match is everything the transactional stages need, computed up front.
type match struct {
	m        payload.Match
	roster   *resolve.Roster
	outcome  outcome.Outcome
	season   *domain.Season
	playedAt time.Time
}

type txSummary struct {
	duplicate     bool
	written       int
	skipped       int
	bufferedKills int
}

// IngestMatch processes one raw match report to completion. Everything past
// outcome determination runs in a single transaction that is re-run on
// ErrTxConflict.
func (s *IngestService) IngestMatch(ctx context.Context, raw []byte) (IngestResult, error) {
	return s.ingestMatch(ctx, raw, true)
}

// Reingest runs a body the archive already holds through the same pipeline
// without offering it to the sinks again.
func (s *IngestService) Reingest(ctx context.Context, raw []byte) (IngestResult, error) {
	return s.ingestMatch(ctx, raw, false)
}

func (s *IngestService) ingestMatch(ctx context.Context, raw []byte, archived bool) (IngestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.IngestTimeout)
	defer cancel()

	log := s.loggerFor(ctx)
	now := s.clock().UTC()
	p := NewPipeline()
	res := IngestResult{SessionID: payload.PeekSessionID(raw)}

	fail := func(err error) (IngestResult, error) {
		p.Fail(err)
		res.State = p.State()
		log.Error().Err(err).Str("session_id", res.SessionID).Msg("match ingestion failed")
		return res, err
	}

	if archived {
		s.archive(ctx, log, archive.Record{
			SessionID:  res.SessionID,
			GameServer: middleware.GetGameServer(ctx),
			Body:       raw,
			ReceivedAt: now,
		})
	}

	m, err := payload.Normalize(raw)
	if err != nil {
		return fail(err)
	}
	if err := p.Advance(StateNormalized); err != nil {
		return fail(err)
	}

	roster, warnings := resolve.Resolve(m)
	for _, w := range warnings {
		log.Warn().Err(w).Str("session_id", m.SessionID).Msg("player degraded to unknown faction")
	}
	if err := p.Advance(StateResolved); err != nil {
		return fail(err)
	}

	out := outcome.Determine(m.FactionScores, roster.Players)
	if out.Corrected {
		log.Warn().Str("session_id", m.SessionID).Msg("uniform outcome corrected to draw")
	}
	if err := p.Advance(StateOutcome); err != nil {
		return fail(err)
	}
	res.Winner = out.Winner
	res.Corrected = out.Corrected

	season, err := s.seasons.Active(ctx, now)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve active season: %w", err))
	}
	if season == nil {
		log.Info().Err(ErrNoActiveSeason).Str("session_id", m.SessionID).Msg("season stats skipped")
	} else {
		res.SeasonID = season.ID
	}

	playedAt := m.Timestamp
	if playedAt.IsZero() {
		playedAt = now
	}
	in := match{m: m, roster: roster, outcome: out, season: season, playedAt: playedAt}

	summary, err := s.commit(ctx, log, in)
	if errors.Is(err, ErrDuplicateSession) {
		log.Info().Str("session_id", m.SessionID).Msg("duplicate session, nothing to do")
		summary = txSummary{duplicate: true, skipped: len(roster.Players)}
		err = nil
	}
	if err != nil {
		return fail(err)
	}
	// The store stages only become visible once the transaction commits.
	if err := p.AdvanceThrough(StateDone); err != nil {
		return fail(err)
	}

	res.Accepted = true
	res.Duplicate = summary.duplicate
	res.Participants = summary.written
	res.Skipped = summary.skipped
	res.BufferedKills = summary.bufferedKills
	res.State = p.State()

	log.Info().
		Str("session_id", m.SessionID).
		Int("participants", res.Participants).
		Int("skipped", res.Skipped).
		Int("buffered_kills", res.BufferedKills).
		Int64("season_id", res.SeasonID).
		Str("winner", res.Winner).
		Bool("duplicate", res.Duplicate).
		Msg("match ingested")
	return res, nil
}

func (s *IngestService) commit(ctx context.Context, log *zerolog.Logger, in match) (txSummary, error) {
	backoff := retry.WithMaxRetries(uint64(s.txMaxRetries), retry.NewExponential(constants.TxRetryBase))

	var summary txSummary
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		summary, err = s.process(ctx, in)
		if errors.Is(err, repository.ErrTxConflict) {
			log.Warn().Err(err).Int("attempt", attempt).Str("session_id", in.m.SessionID).Msg("transaction conflict, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	return summary, err
}

// process is one transactional attempt: skip already-recorded players, claim
// buffered kills, write results, then rate and roll up.
func (s *IngestService) process(ctx context.Context, in match) (txSummary, error) {
	var summary txSummary
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		summary = txSummary{}
		sessionID := in.m.SessionID

		existing, err := s.results.SessionIdentities(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to read session results: %w", err)
		}
		fresh := make(map[string]bool, len(in.roster.Players))
		for _, p := range in.roster.Players {
			if _, done := existing[p.Identity]; done {
				summary.skipped++
				continue
			}
			fresh[p.Identity] = true
		}
		if len(in.roster.Players) > 0 && len(fresh) == 0 {
			return ErrDuplicateSession
		}
		if len(fresh) == 0 {
			return nil
		}

		pending, err := s.kills.Pending(ctx, sessionID, in.playedAt.Add(-s.killWindow), in.playedAt)
		if err != nil {
			return fmt.Errorf("failed to claim buffered kills: %w", err)
		}
		events := claimable(pending, sessionID, in.roster)
		kills := append(attribution.FromPayload(in.m.Kills), attribution.FromEvents(events)...)
		counters := attribution.Tally(kills, in.roster)

		createdAt := s.clock().UTC()
		for _, p := range in.roster.Players {
			if !fresh[p.Identity] {
				continue
			}
			c := counters[p.Identity]
			if err := s.results.Create(ctx, domain.PlayerResult{
				PlayerIdentity: p.Identity,
				SessionID:      sessionID,
				Result:         in.outcome.Results[p.Identity],
				Faction:        p.FactionKey,
				Kills:          c.Kills,
				Deaths:         c.Deaths,
				Teamkills:      c.Teamkills,
				PlayedAt:       in.playedAt,
				CreatedAt:      createdAt,
			}); err != nil {
				return fmt.Errorf("failed to write result for %s: %w", p.Identity, err)
			}
			if err := s.profiles.Touch(ctx, p.Identity, p.Name); err != nil {
				return fmt.Errorf("failed to touch profile %s: %w", p.Identity, err)
			}
			summary.written++
		}

		ids := make([]string, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		if err := s.kills.MarkProcessed(ctx, sessionID, ids); err != nil {
			return fmt.Errorf("failed to mark buffered kills: %w", err)
		}
		summary.bufferedKills = len(ids)

		if in.season == nil {
			return nil
		}
		return s.rate(ctx, in, fresh, counters)
	})
	return summary, err
}

func (s *IngestService) rate(ctx context.Context, in match, fresh map[string]bool, counters map[string]attribution.Counters) error {
	seasonID := in.season.ID

	participants := make([]rating.Participant, len(in.roster.Players))
	for i, p := range in.roster.Players {
		participants[i] = rating.Participant{
			Identity: p.Identity,
			Result:   in.outcome.Results[p.Identity],
			Counters: counters[p.Identity],
		}
		if fresh[p.Identity] {
			if err := s.stats.EnsurePlayer(ctx, p.Identity, seasonID); err != nil {
				return fmt.Errorf("failed to ensure season row for %s: %w", p.Identity, err)
			}
		}
	}

	snapshot, err := s.stats.PlayerRatings(ctx, seasonID, in.roster.Identities())
	if err != nil {
		return fmt.Errorf("failed to snapshot ratings: %w", err)
	}
	updates := rating.Compute(participants, snapshot)

	var freshIDs []string
	var members []rollup.Member
	for i, p := range participants {
		if !fresh[p.Identity] {
			continue
		}
		freshIDs = append(freshIDs, p.Identity)
		if err := s.stats.ApplyPlayer(ctx, seasonID, rollup.PlayerDelta(p, updates[i])); err != nil {
			return fmt.Errorf("failed to apply season delta for %s: %w", p.Identity, err)
		}
		if !updates[i].Skipped {
			if _, err := s.profiles.RaiseMaxRating(ctx, p.Identity, updates[i].New); err != nil {
				return fmt.Errorf("failed to raise max rating for %s: %w", p.Identity, err)
			}
		}
		members = append(members, rollup.Member{Participant: p, Faction: in.roster.Players[i].FactionKey})
	}

	memberships, err := s.directory.Memberships(ctx, freshIDs)
	if err != nil {
		return fmt.Errorf("failed to look up squads: %w", err)
	}
	for i := range members {
		members[i].SquadID = memberships[members[i].Identity].SquadID
	}

	for _, d := range rollup.SquadDeltas(members, in.outcome.HasWinner()) {
		if err := s.stats.EnsureSquad(ctx, d.SquadID, seasonID); err != nil {
			return fmt.Errorf("failed to ensure squad row %d: %w", d.SquadID, err)
		}
		ratings, err := s.stats.SquadMemberRatings(ctx, d.SquadID, seasonID)
		if err != nil {
			return fmt.Errorf("failed to read squad %d ratings: %w", d.SquadID, err)
		}
		d.Rating = domain.DefaultRating
		if r, ok := rollup.SquadRating(ratings); ok {
			d.Rating = r
		}
		if err := s.stats.ApplySquad(ctx, seasonID, d); err != nil {
			return fmt.Errorf("failed to apply squad delta %d: %w", d.SquadID, err)
		}
	}
	return nil
}

// claimable keeps the buffered kills this match owns: every kill tagged with
// its session, and untagged kills in the window only when a side resolves to
// one of its participants. The rest stay pending for a concurrent match.
func claimable(pending []domain.KillEvent, sessionID string, roster *resolve.Roster) []domain.KillEvent {
	events := make([]domain.KillEvent, 0, len(pending))
	for i, k := range attribution.FromEvents(pending) {
		if pending[i].SessionID == sessionID || attribution.Involves(k, roster) {
			events = append(events, pending[i])
		}
	}
	return events
}

// archive is best effort. Failures are logged and never fail ingestion.
func (s *IngestService) archive(ctx context.Context, log *zerolog.Logger, rec archive.Record) {
	if s.archiver == nil {
		return
	}
	actx, cancel := context.WithTimeout(ctx, constants.ArchiveTimeout)
	defer cancel()
	if err := s.archiver.Archive(actx, rec); err != nil {
		log.Warn().Err(err).Str("session_id", rec.SessionID).Msg("failed to archive payload")
	}
}

// loggerFor prefers the request-scoped logger set by middleware.
func (s *IngestService) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		scoped := l.With().Str("module", "service").Str("component", "ingest").Logger()
		return &scoped
	}
	return &s.logger
}
