// Package resolve maps declared players onto entities and factions.
package resolve

import (
	"errors"
	"fmt"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/payload"
)

// ErrUnresolvableEntity is a warning: the player stays in the roster under
// the unknown faction.
var ErrUnresolvableEntity = errors.New("unresolvable entity")

type Player struct {
	Identity   string
	Name       string
	EntityID   string
	FactionKey string
}

func (p Player) Known() bool { return p.FactionKey != domain.UnknownFaction }

type Roster struct {
	Players         []Player
	entityFaction   map[string]string
	entityIdentity  map[string]string
	identityFaction map[string]string
}

// Resolve builds the roster for m. The returned warnings each match
// ErrUnresolvableEntity and name the player they concern.
func Resolve(m payload.Match) (*Roster, []error) {
	r := &Roster{
		Players:         make([]Player, 0, len(m.Players)),
		entityFaction:   make(map[string]string),
		entityIdentity:  make(map[string]string, len(m.PlayerEntities)),
		identityFaction: make(map[string]string, len(m.Players)),
	}

	for _, key := range m.Factions {
		for _, entity := range m.FactionEntities[key] {
			if _, taken := r.entityFaction[entity]; !taken {
				r.entityFaction[entity] = key
			}
		}
	}

	var warnings []error
	for _, p := range m.Players {
		player := Player{Identity: p.Identity, Name: p.Name, FactionKey: domain.UnknownFaction}

		entity, mapped := m.PlayerEntities[p.Identity]
		switch {
		case !mapped || entity == "":
			warnings = append(warnings, fmt.Errorf("player %s has no entity: %w", p.Identity, ErrUnresolvableEntity))
		default:
			player.EntityID = entity
			if _, claimed := r.entityIdentity[entity]; !claimed {
				r.entityIdentity[entity] = p.Identity
			}
			if faction, ok := r.entityFaction[entity]; ok {
				player.FactionKey = faction
			} else {
				warnings = append(warnings, fmt.Errorf("player %s entity %s is in no faction: %w", p.Identity, entity, ErrUnresolvableEntity))
			}
		}

		r.identityFaction[p.Identity] = player.FactionKey
		r.Players = append(r.Players, player)
	}
	return r, warnings
}

// IdentityOf returns the participant controlling entity.
func (r *Roster) IdentityOf(entity string) (string, bool) {
	id, ok := r.entityIdentity[entity]
	return id, ok
}

// FactionOfEntity is the faction an entity was declared under, whether or not
// a participant controls it.
func (r *Roster) FactionOfEntity(entity string) string {
	if f, ok := r.entityFaction[entity]; ok {
		return f
	}
	return domain.UnknownFaction
}

func (r *Roster) FactionOf(identity string) string {
	if f, ok := r.identityFaction[identity]; ok {
		return f
	}
	return domain.UnknownFaction
}

func (r *Roster) IsParticipant(identity string) bool {
	_, ok := r.identityFaction[identity]
	return ok
}

func (r *Roster) Identities() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.Identity
	}
	return ids
}
