package attribution

import (
	"testing"
	"time"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/payload"
	"squad-ladder/internal/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster(t *testing.T) *resolve.Roster {
	t.Helper()
	r, _ := resolve.Resolve(payload.Match{
		Factions: []string{"US", "USSR"},
		FactionEntities: map[string][]string{
			"US":   {"eA", "eC", "bot-us"},
			"USSR": {"eB"},
		},
		PlayerEntities: map[string]string{"A": "eA", "B": "eB", "C": "eC"},
		Players: []payload.Player{
			{Identity: "A"}, {Identity: "B"}, {Identity: "C"}, {Identity: "U"},
		},
	})
	return r
}

func TestTally_KillAccounting(t *testing.T) {
	r := roster(t)
	kills := FromPayload([]payload.Kill{
		{Instigator: "eA", Victim: "eB"},
		{Instigator: "eA", Victim: "eA"},
		{Instigator: "eA", Victim: "eC", FriendlyFire: true},
	})

	got := Tally(kills, r)

	assert.Equal(t, Counters{Kills: 1, Teamkills: 1, Deaths: 1}, got["A"])
	assert.Equal(t, Counters{Deaths: 1}, got["B"])
	assert.Equal(t, Counters{Deaths: 1}, got["C"])
	assert.Equal(t, Counters{}, got["U"])
}

func TestClassify(t *testing.T) {
	r := roster(t)
	cases := []struct {
		name string
		kill Kill
		want Kind
	}{
		{"normal", Kill{Killer: Side{Entity: "eA"}, Victim: Side{Entity: "eB"}}, KindNormal},
		{"same entity", Kill{Killer: Side{Entity: "eB"}, Victim: Side{Entity: "eB"}}, KindSuicide},
		{"same identity", Kill{Killer: Side{Identity: "A"}, Victim: Side{Entity: "eA"}}, KindSuicide},
		{"flagged suicide", Kill{Killer: Side{Identity: "A"}, Victim: Side{Identity: "B"}, Suicide: true}, KindSuicide},
		{"friendly fire same faction", Kill{Killer: Side{Identity: "A"}, Victim: Side{Identity: "C"}, FriendlyFire: true}, KindTeamkill},
		{"same faction without flag", Kill{Killer: Side{Identity: "A"}, Victim: Side{Identity: "C"}}, KindNormal},
		{"friendly fire across factions", Kill{Killer: Side{Identity: "A"}, Victim: Side{Identity: "B"}, FriendlyFire: true}, KindNormal},
		{"unknown faction is never a partner", Kill{Killer: Side{Identity: "U"}, Victim: Side{Identity: "U2"}, FriendlyFire: true}, KindNormal},
		{"ai teammate", Kill{Killer: Side{Entity: "bot-us"}, Victim: Side{Identity: "A"}, FriendlyFire: true}, KindTeamkill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.kill, r))
		})
	}
}

func TestTally_NonParticipantKillerCreditsDeath(t *testing.T) {
	r := roster(t)
	got := Tally([]Kill{
		{Killer: Side{Entity: "ai-1"}, Victim: Side{Entity: "eB"}},
		{Killer: Side{Identity: "spectator"}, Victim: Side{Identity: "A"}},
		{Killer: Side{Identity: "A"}, Victim: Side{Entity: "ai-2"}},
	}, r)

	assert.Equal(t, 1, got["B"].Deaths)
	assert.Equal(t, 1, got["A"].Deaths)
	assert.Equal(t, 1, got["A"].Kills, "killing a non-participant is still a kill")
	assert.NotContains(t, got, "spectator")
}

func TestFromEvents(t *testing.T) {
	kills := FromEvents([]domain.KillEvent{{
		ID:             "k1",
		KillerIdentity: "A",
		VictimEntity:   "eB",
		IsFriendlyFire: true,
		OccurredAt:     time.Now(),
	}})
	require.Len(t, kills, 1)
	assert.Equal(t, Kill{
		EventID:      "k1",
		Killer:       Side{Identity: "A"},
		Victim:       Side{Entity: "eB"},
		FriendlyFire: true,
	}, kills[0])
	assert.Equal(t, "teamkill", KindTeamkill.String())
}

func TestInvolves(t *testing.T) {
	r := roster(t)
	cases := []struct {
		name string
		kill Kill
		want bool
	}{
		{"both participants", Kill{Killer: Side{Entity: "eA"}, Victim: Side{Entity: "eB"}}, true},
		{"ai killer, participant victim", Kill{Killer: Side{Entity: "ai-1"}, Victim: Side{Identity: "C"}}, true},
		{"participant killer, ai victim", Kill{Killer: Side{Identity: "A"}, Victim: Side{Entity: "ai-2"}}, true},
		{"another match", Kill{Killer: Side{Identity: "b1"}, Victim: Side{Identity: "b2"}}, false},
		{"unknown entities", Kill{Killer: Side{Entity: "x1"}, Victim: Side{Entity: "x2"}}, false},
		{"ai teammate on ai", Kill{Killer: Side{Entity: "bot-us"}, Victim: Side{Entity: "ai-2"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Involves(tc.kill, r))
		})
	}
}
