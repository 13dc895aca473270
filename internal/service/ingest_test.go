package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"squad-ladder/internal/archive"
	"squad-ladder/internal/config"
	"squad-ladder/internal/database"
	"squad-ladder/internal/db"
	"squad-ladder/internal/domain"
	"squad-ladder/internal/middleware"
	"squad-ladder/internal/payload"
	"squad-ladder/internal/rating"
	"squad-ladder/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	svc       *IngestService
	ladder    *LadderService
	tx        *repository.TxManager
	seasons   *repository.SeasonRepository
	results   *repository.ResultRepository
	kills     *repository.KillEventRepository
	stats     *repository.StatsRepository
	directory *repository.DirectoryRepository
	profiles  *repository.ProfileRepository
	archive   *repository.ArchiveRepository
}

func newEnv(t *testing.T, mutate ...func(*Deps)) *env {
	t.Helper()
	logger := zerolog.New(io.Discard)
	sqlDB, err := database.New(&config.Config{DBPath: filepath.Join(t.TempDir(), "ladder.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	q := db.New(sqlDB)
	e := &env{
		tx:        repository.NewTxManager(sqlDB, logger),
		seasons:   repository.NewSeasonRepository(q, logger),
		results:   repository.NewResultRepository(q, logger),
		kills:     repository.NewKillEventRepository(q, logger),
		stats:     repository.NewStatsRepository(q, logger),
		directory: repository.NewDirectoryRepository(q, logger),
		profiles:  repository.NewProfileRepository(q, logger),
		archive:   repository.NewArchiveRepository(q, logger),
	}
	d := Deps{
		Tx:           e.tx,
		Seasons:      e.seasons,
		Results:      e.results,
		Kills:        e.kills,
		Stats:        e.stats,
		Directory:    e.directory,
		Profiles:     e.profiles,
		Archiver:     archive.NewMulti(logger, archive.NewStoreSink(e.archive, logger)),
		Clock:        func() time.Time { return now },
		Logger:       logger,
		KillWindow:   3 * time.Hour,
		TxMaxRetries: 2,
	}
	for _, m := range mutate {
		m(&d)
	}
	e.svc = NewIngestService(d)
	e.ladder = NewLadderService(e.seasons, e.stats, e.directory, e.profiles, e.archive, e.svc, d.Clock, logger)
	return e
}

func (e *env) season(t *testing.T) domain.Season {
	t.Helper()
	s, err := e.seasons.Create(context.Background(), "spring", now.AddDate(0, -1, 0), now.AddDate(0, 2, 0))
	require.NoError(t, err)
	return s
}

// report builds a match where every player sits on their own faction entity.
type report struct {
	session  string
	factions map[string][]string // faction -> player identities
	order    []string
	scores   map[string]int
	extra    []payload.Player // players without an entity
	kills    []payload.Kill
}

func (r report) json(t *testing.T) []byte {
	t.Helper()
	rep := payload.Report{
		SessionID:      r.session,
		Timestamp:      now.Add(-10 * time.Minute),
		Mission:        "Everon",
		PlayerEntities: map[string]string{},
		Kills:          r.kills,
	}
	for _, key := range r.order {
		f := payload.Faction{Key: key, Groups: []payload.Group{{ID: key + "-1"}}}
		for _, id := range r.factions[key] {
			f.Groups[0].Playables = append(f.Groups[0].Playables, payload.Playable{EntityID: "e-" + id})
			rep.Players = append(rep.Players, payload.Player{Identity: id, Name: "name-" + id})
			rep.PlayerEntities[id] = "e-" + id
		}
		rep.Factions = append(rep.Factions, f)
		rep.Objectives = append(rep.Objectives, payload.Objective{Faction: key, Name: "capture", Score: r.scores[key]})
	}
	rep.Players = append(rep.Players, r.extra...)
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	return raw
}

func duel(session string) report {
	return report{
		session:  session,
		factions: map[string][]string{"US": {"p1"}, "USSR": {"p2"}},
		order:    []string{"US", "USSR"},
		scores:   map[string]int{"US": 3, "USSR": 1},
	}
}

func TestIngestMatch_EloScenario(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.Duplicate)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 2, res.Participants)
	assert.Equal(t, season.ID, res.SeasonID)
	assert.Equal(t, "US", res.Winner)

	p1, err := e.stats.GetPlayer(ctx, "p1", season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1032, p1.Rating)
	assert.Equal(t, 1, p1.Matches)
	assert.Equal(t, 1, p1.Wins)

	p2, err := e.stats.GetPlayer(ctx, "p2", season.ID)
	require.NoError(t, err)
	assert.Equal(t, 968, p2.Rating)
	assert.Equal(t, 1, p2.Losses)

	profile, err := e.profiles.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1032, profile.MaxRating)
	assert.Equal(t, "name-p1", profile.Name)

	loser, err := e.profiles.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1000, loser.MaxRating)
}

func TestIngestMatch_Idempotent(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()
	raw := duel("s1").json(t)

	_, err := e.svc.IngestMatch(ctx, raw)
	require.NoError(t, err)
	first, err := e.stats.Standings(ctx, season.ID, 10)
	require.NoError(t, err)

	res, err := e.svc.IngestMatch(ctx, raw)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 0, res.Participants)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, StateDone, res.State)

	second, err := e.stats.Standings(ctx, season.ID, 10)
	require.NoError(t, err)
	for i := range first {
		first[i].UpdatedAt, second[i].UpdatedAt = time.Time{}, time.Time{}
	}
	assert.Equal(t, first, second)

	archived, err := e.archive.List(ctx)
	require.NoError(t, err)
	assert.Len(t, archived, 1, "archive is write-once per session")
}

func TestIngestMatch_PartialReplaySkipsExistingPairs(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	require.NoError(t, e.results.Create(ctx, domain.PlayerResult{
		PlayerIdentity: "p1", SessionID: "s1", Result: domain.ResultWin, Faction: "US", PlayedAt: now,
	}))

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, 1, res.Participants)
	assert.Equal(t, 1, res.Skipped)

	_, err = e.stats.GetPlayer(ctx, "p1", season.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "p1 was already recorded and is not re-rated")

	p2, err := e.stats.GetPlayer(ctx, "p2", season.ID)
	require.NoError(t, err)
	assert.Equal(t, 968, p2.Rating)
}

func TestIngestMatch_ThreeFactionTieIsDraw(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, report{
		session:  "s1",
		factions: map[string][]string{"US": {"a"}, "USSR": {"b"}, "FIA": {"c"}},
		order:    []string{"US", "USSR", "FIA"},
		scores:   map[string]int{"US": 4, "USSR": 4, "FIA": 1},
	}.json(t))
	require.NoError(t, err)
	assert.Empty(t, res.Winner)

	results, err := e.results.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, domain.ResultDraw, r.Result)

		stats, err := e.stats.GetPlayer(ctx, r.PlayerIdentity, season.ID)
		require.NoError(t, err)
		assert.Equal(t, 1000, stats.Rating)
		assert.Equal(t, 1, stats.Matches)
		assert.Zero(t, stats.Wins)
		assert.Zero(t, stats.Losses)
	}
}

func TestIngestMatch_DegenerateCorrection(t *testing.T) {
	e := newEnv(t)
	e.season(t)
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, report{
		session:  "s1",
		factions: map[string][]string{"US": {"a", "b", "c"}, "USSR": nil},
		order:    []string{"US", "USSR"},
		scores:   map[string]int{"US": 5},
	}.json(t))
	require.NoError(t, err)
	assert.True(t, res.Corrected)

	results, err := e.results.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, domain.ResultDraw, r.Result)
	}
}

func TestIngestMatch_KillAccounting(t *testing.T) {
	e := newEnv(t)
	e.season(t)
	ctx := context.Background()

	_, err := e.svc.IngestMatch(ctx, report{
		session:  "s1",
		factions: map[string][]string{"US": {"A", "C"}, "USSR": {"B"}},
		order:    []string{"US", "USSR"},
		scores:   map[string]int{"US": 2, "USSR": 1},
		kills: []payload.Kill{
			{Instigator: "e-A", Victim: "e-B", Time: 10},
			{Instigator: "e-A", Victim: "e-A", Time: 20},
			{Instigator: "e-A", Victim: "e-C", Time: 30, FriendlyFire: true},
		},
	}.json(t))
	require.NoError(t, err)

	byID := resultsByID(t, e, "s1")
	assert.Equal(t, [3]int{1, 1, 1}, counters(byID["A"]))
	assert.Equal(t, [3]int{0, 1, 0}, counters(byID["B"]))
	assert.Equal(t, [3]int{0, 1, 0}, counters(byID["C"]))
}

func TestIngestMatch_ClaimsBufferedKills(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	tagged, err := e.svc.IngestKill(ctx, KillEventInput{SessionID: "s1", KillerIdentity: "p1", VictimIdentity: "p2", OccurredAt: now.Add(-20 * time.Hour)})
	require.NoError(t, err)
	untagged, err := e.svc.IngestKill(ctx, KillEventInput{KillerEntity: "e-p2", VictimEntity: "e-p1", OccurredAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	stale, err := e.svc.IngestKill(ctx, KillEventInput{KillerEntity: "e-p2", VictimEntity: "e-p1", OccurredAt: now.Add(-6 * time.Hour)})
	require.NoError(t, err)

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.BufferedKills)

	byID := resultsByID(t, e, "s1")
	assert.Equal(t, [3]int{1, 1, 0}, counters(byID["p1"]))
	assert.Equal(t, [3]int{1, 1, 0}, counters(byID["p2"]))

	for _, id := range []string{tagged.ID, untagged.ID} {
		ev, err := e.kills.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, ev.Processed)
		assert.Equal(t, "s1", ev.ProcessedSession)
	}
	ev, err := e.kills.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, ev.Processed, "outside the kill window")

	p1, err := e.stats.GetPlayer(ctx, "p1", season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Kills)
	assert.Equal(t, 1, p1.Deaths)
}

func TestIngestMatch_LeavesOtherMatchesKillsPending(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	byEntity, err := e.svc.IngestKill(ctx, KillEventInput{KillerEntity: "e-b1", VictimEntity: "e-b2", OccurredAt: now.Add(-15 * time.Minute)})
	require.NoError(t, err)
	byIdentity, err := e.svc.IngestKill(ctx, KillEventInput{KillerIdentity: "b2", VictimIdentity: "b1", OccurredAt: now.Add(-20 * time.Minute)})
	require.NoError(t, err)

	first, err := e.svc.IngestMatch(ctx, duel("A").json(t))
	require.NoError(t, err)
	assert.Zero(t, first.BufferedKills)

	for _, id := range []string{byEntity.ID, byIdentity.ID} {
		ev, err := e.kills.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, ev.Processed, "kill between players of another match")
	}

	second, err := e.svc.IngestMatch(ctx, report{
		session:  "B",
		factions: map[string][]string{"US": {"b1"}, "USSR": {"b2"}},
		order:    []string{"US", "USSR"},
		scores:   map[string]int{"US": 2},
	}.json(t))
	require.NoError(t, err)
	assert.Equal(t, 2, second.BufferedKills)

	byID := resultsByID(t, e, "B")
	assert.Equal(t, [3]int{1, 1, 0}, counters(byID["b1"]))
	assert.Equal(t, [3]int{1, 1, 0}, counters(byID["b2"]))

	ev, err := e.kills.Get(ctx, byEntity.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", ev.ProcessedSession)

	b1, err := e.stats.GetPlayer(ctx, "b1", season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b1.Kills)
}

func TestIngestMatch_ConcurrentMatchesForOnePlayer(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		raw := report{
			session:  fmt.Sprintf("c%d", i),
			factions: map[string][]string{"US": {"p1"}, "USSR": {fmt.Sprintf("o%d", i)}},
			order:    []string{"US", "USSR"},
			scores:   map[string]int{"US": 1},
		}.json(t)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.svc.IngestMatch(ctx, raw)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Every opponent starts at the default, so the order does not matter.
	want := domain.DefaultRating
	for range n {
		want = rating.NewRating(want, 1, rating.Expected(float64(want), domain.DefaultRating))
	}

	p1, err := e.stats.GetPlayer(ctx, "p1", season.ID)
	require.NoError(t, err)
	assert.Equal(t, n, p1.Matches)
	assert.Equal(t, n, p1.Wins)
	assert.Equal(t, want, p1.Rating)

	profile, err := e.profiles.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, want, profile.MaxRating)
}

type recordingArchiver struct {
	records []archive.Record
}

func (r *recordingArchiver) Archive(_ context.Context, rec archive.Record) error {
	r.records = append(r.records, rec)
	return nil
}

func TestIngestMatch_ArchivesWithGameServer(t *testing.T) {
	rec := &recordingArchiver{}
	e := newEnv(t, func(d *Deps) { d.Archiver = rec })

	ctx := context.WithValue(context.Background(), middleware.GameServerKey, "eu-1")
	_, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	assert.Equal(t, "s1", rec.records[0].SessionID)
	assert.Equal(t, "eu-1", rec.records[0].GameServer)

	_, err = e.svc.Reingest(context.Background(), duel("s1").json(t))
	require.NoError(t, err)
	assert.Len(t, rec.records, 1, "reingesting never archives again")
}

func TestIngestMatch_NoActiveSeason(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Zero(t, res.SeasonID)

	results, err := e.results.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, results, 2, "match history does not depend on the season")

	past, err := e.seasons.Create(ctx, "winter", now.AddDate(-1, 0, 0), now.AddDate(0, -6, 0))
	require.NoError(t, err)
	standings, err := e.stats.Standings(ctx, past.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, standings)
}

func TestIngestMatch_UnresolvedEntity(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	squads := map[string]int64{}
	for i, id := range []string{"p1", "p2", "p3"} {
		sq, err := e.directory.CreateSquad(ctx, "squad-"+id, "")
		require.NoError(t, err)
		require.NoError(t, e.directory.Link(ctx, int64(i+1), id, sq.ID))
		squads[id] = sq.ID
	}

	r := duel("s1")
	r.extra = []payload.Player{{Identity: "p3", Name: "ghost"}}
	res, err := e.svc.IngestMatch(ctx, r.json(t))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Participants)

	byID := resultsByID(t, e, "s1")
	assert.Equal(t, domain.UnknownFaction, byID["p3"].Faction)
	assert.Equal(t, domain.ResultLose, byID["p3"].Result)

	winners, err := e.stats.GetSquad(ctx, squads["p1"], season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, winners.Wins)
	assert.Equal(t, 1032, winners.Rating)

	losers, err := e.stats.GetSquad(ctx, squads["p2"], season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, losers.Losses)
	assert.Equal(t, 968, losers.Rating)

	_, err = e.stats.GetSquad(ctx, squads["p3"], season.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "an unresolved member never counts for a squad")
}

func TestIngestMatch_SquadRollup(t *testing.T) {
	e := newEnv(t)
	season := e.season(t)
	ctx := context.Background()

	mixed, err := e.directory.CreateSquad(ctx, "mixed", "MX")
	require.NoError(t, err)
	require.NoError(t, e.directory.Link(ctx, 1, "a", mixed.ID))
	require.NoError(t, e.directory.Link(ctx, 2, "b", mixed.ID))

	_, err = e.svc.IngestMatch(ctx, report{
		session:  "s1",
		factions: map[string][]string{"US": {"a"}, "USSR": {"b", "c"}},
		order:    []string{"US", "USSR"},
		scores:   map[string]int{"US": 3, "USSR": 1},
		kills:    []payload.Kill{{Instigator: "e-a", Victim: "e-b"}, {Instigator: "e-c", Victim: "e-a"}},
	}.json(t))
	require.NoError(t, err)

	stats, err := e.stats.GetSquad(ctx, mixed.ID, season.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Matches)
	assert.Equal(t, 1, stats.Wins, "any member winning wins the squad")
	assert.Zero(t, stats.Losses)
	assert.Equal(t, 1, stats.Kills)
	assert.Equal(t, 2, stats.Deaths)

	a, err := e.stats.GetPlayer(ctx, "a", season.ID)
	require.NoError(t, err)
	b, err := e.stats.GetPlayer(ctx, "b", season.ID)
	require.NoError(t, err)
	assert.Equal(t, (a.Rating+b.Rating+1)/2, stats.Rating)
}

func TestIngestMatch_Malformed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, []byte(`{"session_id":"s1","kills":[]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, payload.ErrMalformedPayload)
	assert.False(t, res.Accepted)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, "s1", res.SessionID)

	results, err := e.results.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, results)

	archived, err := e.archive.List(ctx)
	require.NoError(t, err)
	assert.Len(t, archived, 1, "raw bodies are archived before normalization")
}

type flakyTx struct {
	inner    repository.Transactor
	failures int
	calls    int
}

func (f *flakyTx) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return repository.ErrTxConflict
	}
	return f.inner.WithinTx(ctx, fn)
}

func TestIngestMatch_RetriesTransactionConflicts(t *testing.T) {
	flaky := &flakyTx{failures: 2}
	e := newEnv(t, func(d *Deps) {
		flaky.inner = d.Tx
		d.Tx = flaky
	})
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, 3, flaky.calls)
}

func TestIngestMatch_ExhaustedRetriesFail(t *testing.T) {
	flaky := &flakyTx{failures: 10}
	e := newEnv(t, func(d *Deps) {
		flaky.inner = d.Tx
		d.Tx = flaky
		d.TxMaxRetries = 1
	})
	ctx := context.Background()

	res, err := e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrTxConflict)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 2, flaky.calls)

	results, err := e.results.ListBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, results)

	// Safe to ingest again once contention is gone.
	flaky.failures = 0
	res, err = e.svc.IngestMatch(ctx, duel("s1").json(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Participants)
}

func TestIngestKill(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	t.Run("suicide is derived", func(t *testing.T) {
		ack, err := e.svc.IngestKill(ctx, KillEventInput{KillerEntity: "e1", VictimEntity: "e1"})
		require.NoError(t, err)
		require.NotEmpty(t, ack.ID)

		ev, err := e.kills.Get(ctx, ack.ID)
		require.NoError(t, err)
		assert.True(t, ev.IsSuicide)
		assert.False(t, ev.Processed)
		assert.True(t, now.Equal(ev.OccurredAt), "missing time defaults to now")
	})

	t.Run("each side needs an identity or entity", func(t *testing.T) {
		_, err := e.svc.IngestKill(ctx, KillEventInput{KillerIdentity: "p1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, payload.ErrMalformedPayload)

		fields := payload.FieldErrors(err)
		var names []string
		for _, f := range fields {
			names = append(names, f.Field)
		}
		assert.Contains(t, names, "victim_identity")
	})
}

func resultsByID(t *testing.T, e *env, session string) map[string]domain.PlayerResult {
	t.Helper()
	results, err := e.results.ListBySession(context.Background(), session)
	require.NoError(t, err)
	out := make(map[string]domain.PlayerResult, len(results))
	for _, r := range results {
		out[r.PlayerIdentity] = r
	}
	return out
}

// counters is kills, deaths, teamkills.
func counters(r domain.PlayerResult) [3]int {
	return [3]int{r.Kills, r.Deaths, r.Teamkills}
}
