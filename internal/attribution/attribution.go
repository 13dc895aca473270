// Package attribution classifies kills and folds them into per-player
// counters.
package attribution

import (
	"squad-ladder/internal/domain"
	"squad-ladder/internal/payload"
	"squad-ladder/internal/resolve"
)

// Side is one end of a kill. Either field may be empty.
type Side struct {
	Identity string
	Entity   string
}

type Kill struct {
	EventID      string // set for buffered kills
	Killer       Side
	Victim       Side
	FriendlyFire bool
	Suicide      bool
}

type Kind int

const (
	KindNormal Kind = iota
	KindTeamkill
	KindSuicide
)

func (k Kind) String() string {
	switch k {
	case KindTeamkill:
		return "teamkill"
	case KindSuicide:
		return "suicide"
	default:
		return "normal"
	}
}

type Counters struct {
	Kills     int
	Deaths    int
	Teamkills int
}

func FromPayload(kills []payload.Kill) []Kill {
	out := make([]Kill, len(kills))
	for i, k := range kills {
		out[i] = Kill{
			Killer:       Side{Entity: k.Instigator},
			Victim:       Side{Entity: k.Victim},
			FriendlyFire: k.FriendlyFire,
		}
	}
	return out
}

func FromEvents(events []domain.KillEvent) []Kill {
	out := make([]Kill, len(events))
	for i, e := range events {
		out[i] = Kill{
			EventID:      e.ID,
			Killer:       Side{Identity: e.KillerIdentity, Entity: e.KillerEntity},
			Victim:       Side{Identity: e.VictimIdentity, Entity: e.VictimEntity},
			FriendlyFire: e.IsFriendlyFire,
			Suicide:      e.IsSuicide,
		}
	}
	return out
}

// identity resolves a side to a player identity, preferring the explicit one.
func identity(s Side, roster *resolve.Roster) string {
	if s.Identity != "" {
		return s.Identity
	}
	id, _ := roster.IdentityOf(s.Entity)
	return id
}

func faction(s Side, roster *resolve.Roster) string {
	if id := identity(s, roster); id != "" && roster.IsParticipant(id) {
		return roster.FactionOf(id)
	}
	if s.Entity != "" {
		return roster.FactionOfEntity(s.Entity)
	}
	return domain.UnknownFaction
}

// Involves reports whether either side of k resolves to a participant of
// the roster's match.
func Involves(k Kill, roster *resolve.Roster) bool {
	return roster.IsParticipant(identity(k.Killer, roster)) ||
		roster.IsParticipant(identity(k.Victim, roster))
}

func Classify(k Kill, roster *resolve.Roster) Kind {
	killer, victim := identity(k.Killer, roster), identity(k.Victim, roster)
	if k.Suicide ||
		(killer != "" && killer == victim) ||
		(k.Killer.Entity != "" && k.Killer.Entity == k.Victim.Entity) {
		return KindSuicide
	}
	if k.FriendlyFire {
		kf, vf := faction(k.Killer, roster), faction(k.Victim, roster)
		if kf != domain.UnknownFaction && kf == vf {
			return KindTeamkill
		}
	}
	return KindNormal
}

// Tally counts kills for match participants. Every participant has an
// entry. A kill by a non-participant still credits the victim's death.
func Tally(kills []Kill, roster *resolve.Roster) map[string]Counters {
	counters := make(map[string]Counters, len(roster.Players))
	for _, p := range roster.Players {
		counters[p.Identity] = Counters{}
	}

	for _, k := range kills {
		kind := Classify(k, roster)
		killer, victim := identity(k.Killer, roster), identity(k.Victim, roster)

		if c, ok := counters[victim]; ok {
			c.Deaths++
			counters[victim] = c
		}
		if kind == KindSuicide {
			continue
		}
		if c, ok := counters[killer]; ok {
			if kind == KindTeamkill {
				c.Teamkills++
			} else {
				c.Kills++
			}
			counters[killer] = c
		}
	}
	return counters
}
