// Package archive keeps a write-once copy of every raw match body. The
// ingestion path never reads it back.
package archive

import (
	"context"
	"fmt"
	"time"

	"squad-ladder/internal/config"
	"squad-ladder/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Record struct {
	SessionID  string
	GameServer string // empty when the sender did not identify itself
	Body       []byte
	ReceivedAt time.Time
}

type Sink interface {
	Name() string
	Archive(ctx context.Context, rec Record) error
}

// StoreSink writes records into the payload_archive table.
type StoreSink struct {
	store  repository.ArchiveStore
	logger zerolog.Logger
}

func NewStoreSink(store repository.ArchiveStore, logger zerolog.Logger) *StoreSink {
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Archive(ctx context.Context, rec Record) error {
	stored, err := s.store.Put(ctx, rec.SessionID, rec.Body, rec.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to archive payload: %w", err)
	}
	if !stored {
		s.logger.Debug().Str("session_id", rec.SessionID).Msg("payload already archived")
	}
	return nil
}

// Multi fans a record out to every sink and waits for all of them.
type Multi struct {
	sinks  []Sink
	logger zerolog.Logger
}

func NewMulti(logger zerolog.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, logger: logger}
}

// New builds the sinks enabled by cfg. The store sink is always present.
func New(cfg *config.Config, store repository.ArchiveStore, logger zerolog.Logger) *Multi {
	logger = logger.With().Str("component", "archive").Logger()
	sinks := []Sink{NewStoreSink(store, logger)}
	if cfg.ArchiveURL != "" {
		sinks = append(sinks, NewHTTPSink(cfg.ArchiveURL, cfg.ArchiveToken, logger))
	}
	return NewMulti(logger, sinks...)
}

func (m *Multi) Archive(ctx context.Context, rec Record) error {
	var g errgroup.Group
	for _, sink := range m.sinks {
		g.Go(func() error {
			if err := sink.Archive(ctx, rec); err != nil {
				m.logger.Warn().Err(err).Str("sink", sink.Name()).Str("session_id", rec.SessionID).Msg("archive sink failed")
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
