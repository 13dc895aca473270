// Package rollup turns rated match results into season deltas.
package rollup

import (
	"math"
	"sort"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/rating"
)

// PlayerDelta is the season increment for one player. Draws count toward
// matches only.
func PlayerDelta(p rating.Participant, u rating.Update) domain.PlayerSeasonDelta {
	d := domain.PlayerSeasonDelta{
		PlayerIdentity: p.Identity,
		Rating:         u.New,
		Kills:          p.Counters.Kills,
		Deaths:         p.Counters.Deaths,
		Teamkills:      p.Counters.Teamkills,
		Matches:        1,
	}
	switch p.Result {
	case domain.ResultWin:
		d.Wins = 1
	case domain.ResultLose:
		d.Losses = 1
	}
	return d
}

type Member struct {
	rating.Participant
	SquadID int64
	Faction string
}

// SquadDeltas groups fresh participants by current squad. Members under the
// unknown faction do not count for their squad. A squad wins when any of its
// members won; when nobody in the match won the squad only gains a match.
// Rating is left at zero for the caller to fill from member ratings.
func SquadDeltas(members []Member, matchHasWinner bool) []domain.SquadSeasonDelta {
	bySquad := make(map[int64]*domain.SquadSeasonDelta)
	won := make(map[int64]bool)

	for _, m := range members {
		if m.SquadID == 0 || m.Faction == domain.UnknownFaction {
			continue
		}
		d, ok := bySquad[m.SquadID]
		if !ok {
			d = &domain.SquadSeasonDelta{SquadID: m.SquadID, Matches: 1}
			bySquad[m.SquadID] = d
		}
		d.Kills += m.Counters.Kills
		d.Deaths += m.Counters.Deaths
		if m.Result == domain.ResultWin {
			won[m.SquadID] = true
		}
	}

	out := make([]domain.SquadSeasonDelta, 0, len(bySquad))
	for id, d := range bySquad {
		if matchHasWinner {
			if won[id] {
				d.Wins = 1
			} else {
				d.Losses = 1
			}
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SquadID < out[j].SquadID })
	return out
}

// SquadRating is the rounded mean of member ratings. ok is false when no
// member has a season rating yet.
func SquadRating(memberRatings []int) (r int, ok bool) {
	if len(memberRatings) == 0 {
		return 0, false
	}
	sum := 0
	for _, v := range memberRatings {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(memberRatings)))), true
}
