package domain

import (
	"time"
)

type Result string

const (
	ResultWin  Result = "win"
	ResultLose Result = "lose"
	ResultDraw Result = "draw"
)

func (r Result) Valid() bool {
	switch r {
	case ResultWin, ResultLose, ResultDraw:
		return true
	}
	return false
}

// DefaultRating seeds every player and squad season row.
const DefaultRating = 1000

// UnknownFaction is assigned to players whose entity or faction cannot be
// resolved. It never wins and is never a teamkill partner.
const UnknownFaction = "unknown"

type Season struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

// Contains reports whether at falls inside [StartDate, EndDate).
func (s Season) Contains(at time.Time) bool {
	return !at.Before(s.StartDate) && at.Before(s.EndDate)
}

type PlayerResult struct {
	PlayerIdentity string
	SessionID      string
	Result         Result
	Faction        string
	Kills          int
	Deaths         int
	Teamkills      int
	PlayedAt       time.Time
	CreatedAt      time.Time
}

type KillEvent struct {
	ID               string
	SessionID        string // empty when the feed did not tag the kill
	KillerIdentity   string
	KillerEntity     string
	VictimIdentity   string
	VictimEntity     string
	OccurredAt       time.Time
	IsFriendlyFire   bool
	IsSuicide        bool
	Processed        bool
	ProcessedSession string
	CreatedAt        time.Time
}

type PlayerSeasonStats struct {
	PlayerIdentity string
	SeasonID       int64
	Rating         int
	Kills          int
	Deaths         int
	Teamkills      int
	Matches        int
	Wins           int
	Losses         int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SquadSeasonStats struct {
	SquadID   int64
	SeasonID  int64
	Rating    int
	Kills     int
	Deaths    int
	Matches   int
	Wins      int
	Losses    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Squad struct {
	ID        int64
	Name      string
	Tag       string
	CreatedAt time.Time
}

// Membership is the directory view of a player identity. SquadID is 0 when
// the account is not currently in a squad.
type Membership struct {
	AccountID      int64
	PlayerIdentity string
	SquadID        int64
}

type PlayerProfile struct {
	Identity  string
	Name      string
	MaxRating int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ArchivedPayload struct {
	ID         string
	SessionID  string
	Body       []byte
	ReceivedAt time.Time
}

// PlayerSeasonDelta is what one match adds to a season row. Rating replaces
// the stored value; every other field is added.
type PlayerSeasonDelta struct {
	PlayerIdentity string
	Rating         int
	Kills          int
	Deaths         int
	Teamkills      int
	Matches        int
	Wins           int
	Losses         int
}

type SquadSeasonDelta struct {
	SquadID int64
	Rating  int
	Kills   int
	Deaths  int
	Matches int
	Wins    int
	Losses  int
}
