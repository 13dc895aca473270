// Package outcome decides the winning faction of a match and each player's
// result.
package outcome

import (
	"squad-ladder/internal/domain"
	"squad-ladder/internal/resolve"
)

type Outcome struct {
	Winner    string // empty when the match has no winner
	MaxScore  int
	Results   map[string]domain.Result
	Corrected bool // a uniform win or lose was rewritten to draw
}

// HasWinner reports whether any participant ended with a win.
func (o Outcome) HasWinner() bool {
	for _, r := range o.Results {
		if r == domain.ResultWin {
			return true
		}
	}
	return false
}

// Winner returns the unique faction with the highest score, or "" when the
// top score is 0 or shared. The unknown faction is never a candidate.
func Winner(scores map[string]int) (string, int) {
	winner, best, tied := "", 0, false
	for faction, score := range scores {
		if faction == domain.UnknownFaction {
			continue
		}
		switch {
		case score > best:
			winner, best, tied = faction, score, false
		case score == best:
			tied = true
		}
	}
	if best == 0 || tied {
		return "", best
	}
	return winner, best
}

func Determine(scores map[string]int, players []resolve.Player) Outcome {
	winner, best := Winner(scores)
	o := Outcome{
		Winner:   winner,
		MaxScore: best,
		Results:  make(map[string]domain.Result, len(players)),
	}

	for _, p := range players {
		switch {
		case winner == "":
			o.Results[p.Identity] = domain.ResultDraw
		case p.FactionKey == winner:
			o.Results[p.Identity] = domain.ResultWin
		default:
			o.Results[p.Identity] = domain.ResultLose
		}
	}

	if uniform(o.Results, decisive(players)) {
		for id := range o.Results {
			o.Results[id] = domain.ResultDraw
		}
		o.Corrected = true
	}
	return o
}

// decisive lists the players whose result says something about the match:
// those with a known faction, or everyone when nobody resolved.
func decisive(players []resolve.Player) []string {
	var known, all []string
	for _, p := range players {
		all = append(all, p.Identity)
		if p.FactionKey != domain.UnknownFaction {
			known = append(known, p.Identity)
		}
	}
	if len(known) > 0 {
		return known
	}
	return all
}

// uniform is true when every listed result is the same win or the same lose.
func uniform(results map[string]domain.Result, ids []string) bool {
	var first domain.Result
	for _, id := range ids {
		r := results[id]
		if r == domain.ResultDraw {
			return false
		}
		if first == "" {
			first = r
		} else if r != first {
			return false
		}
	}
	return first != ""
}
