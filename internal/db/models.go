package db

import (
	"database/sql"
	"time"
)

type Account struct {
	ID             int64
	PlayerIdentity string
	CreatedAt      time.Time
}

type KillEvent struct {
	ID               string
	SessionID        string
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

type PayloadArchive struct {
	ID         string
	SessionID  sql.NullString
	Body       []byte
	ReceivedAt time.Time
}

type PlayerProfile struct {
	Identity  string
	Name      string
	MaxRating int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PlayerResult struct {
	PlayerIdentity string
	SessionID      string
	Result         string
	Faction        string
	Kills          int64
	Deaths         int64
	Teamkills      int64
	PlayedAt       time.Time
	CreatedAt      time.Time
}

type PlayerSeasonStat struct {
	PlayerIdentity string
	SeasonID       int64
	Rating         int64
	Kills          int64
	Deaths         int64
	Teamkills      int64
	Matches        int64
	Wins           int64
	Losses         int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Season struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

type Squad struct {
	ID        int64
	Name      string
	Tag       string
	CreatedAt time.Time
}

type SquadMember struct {
	AccountID int64
	SquadID   int64
	JoinedAt  time.Time
}

type SquadSeasonStat struct {
	SquadID   int64
	SeasonID  int64
	Rating    int64
	Kills     int64
	Deaths    int64
	Matches   int64
	Wins      int64
	Losses    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
