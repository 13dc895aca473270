package constants

import "time"

const (
	IngestTimeout   = 30 * time.Second
	DatabaseTimeout = 5 * time.Second
	ArchiveTimeout  = 10 * time.Second
)

const (
	DBMaxOpenConns    = 16
	DBMaxIdleConns    = 4
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBusyTimeoutMs   = 5000
	DBBatchSize       = 100
)

const (
	TxRetryBase = 25 * time.Millisecond
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	StandingsDefaultLimit = 25
	MaxPayloadBytes       = 8 << 20
)
