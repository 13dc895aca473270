// Package rating implements the seasonal Elo update.
package rating

import (
	"math"

	"squad-ladder/internal/attribution"
	"squad-ladder/internal/domain"
)

const (
	DefaultRating = domain.DefaultRating
	K             = 64

	killBonus     = 0.1
	deathPenalty  = 0.02
	teamkillMalus = 0.1
)

type Participant struct {
	Identity string
	Result   domain.Result
	Counters attribution.Counters
}

type Update struct {
	Identity    string
	Old         int
	New         int
	Score       float64
	Expected    float64
	OpponentAvg float64
	Opponents   int
	Skipped     bool // empty opponent pool, rating unchanged
}

func baseScore(r domain.Result) float64 {
	switch r {
	case domain.ResultWin:
		return 1
	case domain.ResultLose:
		return 0
	default:
		return 0.5
	}
}

// Score is the performance-adjusted result, clamped to [0, 1].
func Score(r domain.Result, c attribution.Counters) float64 {
	s := baseScore(r) +
		float64(c.Kills)*killBonus -
		float64(c.Deaths)*deathPenalty -
		float64(c.Teamkills)*teamkillMalus
	return math.Max(0, math.Min(1, s))
}

func Expected(rating, opponentAvg float64) float64 {
	return 1 / (1 + math.Pow(10, (opponentAvg-rating)/400))
}

func NewRating(rating int, score, expected float64) int {
	return int(math.Round(float64(rating) + K*(score-expected)))
}

// OpponentPool lists who p is measured against: the losers when p won, the
// winners when p lost, everyone else on a draw.
func OpponentPool(p Participant, all []Participant) []string {
	var pool []string
	for _, o := range all {
		if o.Identity == p.Identity {
			continue
		}
		switch p.Result {
		case domain.ResultWin:
			if o.Result == domain.ResultLose {
				pool = append(pool, o.Identity)
			}
		case domain.ResultLose:
			if o.Result == domain.ResultWin {
				pool = append(pool, o.Identity)
			}
		default:
			pool = append(pool, o.Identity)
		}
	}
	return pool
}

// Compute rates every participant against the same snapshot of ratings, so
// the outcome does not depend on iteration order. Missing snapshot entries
// count as DefaultRating.
func Compute(all []Participant, snapshot map[string]int) []Update {
	ratingOf := func(id string) int {
		if r, ok := snapshot[id]; ok {
			return r
		}
		return DefaultRating
	}

	updates := make([]Update, len(all))
	for i, p := range all {
		old := ratingOf(p.Identity)
		u := Update{Identity: p.Identity, Old: old, New: old}

		pool := OpponentPool(p, all)
		if len(pool) == 0 {
			u.Skipped = true
			updates[i] = u
			continue
		}

		sum := 0
		for _, id := range pool {
			sum += ratingOf(id)
		}
		u.Opponents = len(pool)
		u.OpponentAvg = float64(sum) / float64(len(pool))
		u.Score = Score(p.Result, p.Counters)
		u.Expected = Expected(float64(old), u.OpponentAvg)
		u.New = NewRating(old, u.Score, u.Expected)
		updates[i] = u
	}
	return updates
}
