package resolve

import (
	"testing"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match() payload.Match {
	return payload.Match{
		SessionID: "s1",
		Factions:  []string{"US", "USSR"},
		FactionEntities: map[string][]string{
			"US":   {"e1", "e2"},
			"USSR": {"e3"},
		},
		PlayerEntities: map[string]string{"p1": "e1", "p2": "e3", "p4": "e9"},
		Players: []payload.Player{
			{Identity: "p1", Name: "Alpha"},
			{Identity: "p2", Name: "Bravo"},
			{Identity: "p3", Name: "Ghost"},
			{Identity: "p4", Name: "Lost"},
		},
	}
}

func TestResolve(t *testing.T) {
	roster, warnings := Resolve(match())

	require.Len(t, roster.Players, 4)
	assert.Equal(t, Player{Identity: "p1", Name: "Alpha", EntityID: "e1", FactionKey: "US"}, roster.Players[0])
	assert.Equal(t, "USSR", roster.Players[1].FactionKey)

	assert.Equal(t, domain.UnknownFaction, roster.Players[2].FactionKey, "no entity mapping")
	assert.False(t, roster.Players[2].Known())
	assert.Equal(t, domain.UnknownFaction, roster.Players[3].FactionKey, "entity outside the tree")
	assert.Equal(t, "e9", roster.Players[3].EntityID)

	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.ErrorIs(t, w, ErrUnresolvableEntity)
	}
}

func TestRoster_Lookups(t *testing.T) {
	roster, _ := Resolve(match())

	id, ok := roster.IdentityOf("e3")
	assert.True(t, ok)
	assert.Equal(t, "p2", id)

	_, ok = roster.IdentityOf("e2")
	assert.False(t, ok, "e2 is declared but nobody controls it")
	assert.Equal(t, "US", roster.FactionOfEntity("e2"))
	assert.Equal(t, domain.UnknownFaction, roster.FactionOfEntity("bot"))

	assert.Equal(t, "US", roster.FactionOf("p1"))
	assert.Equal(t, domain.UnknownFaction, roster.FactionOf("nobody"))
	assert.True(t, roster.IsParticipant("p3"))
	assert.False(t, roster.IsParticipant("nobody"))
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, roster.Identities())
}

func TestResolve_EmptyTree(t *testing.T) {
	roster, warnings := Resolve(payload.Match{
		Players:        []payload.Player{{Identity: "p1"}},
		PlayerEntities: map[string]string{"p1": "e1"},
	})
	require.Len(t, roster.Players, 1)
	assert.Equal(t, domain.UnknownFaction, roster.Players[0].FactionKey)
	assert.Len(t, warnings, 1)
}
