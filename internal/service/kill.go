package service

import (
	"context"
	"fmt"
	"time"

	"squad-ladder/internal/domain"
	"squad-ladder/internal/payload"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// KillEventInput is one kill from the live feed. Each side needs an identity
// or an entity. SessionID is optional; untagged kills are claimed by time.
type KillEventInput struct {
	SessionID      string    `json:"session_id"`
	KillerIdentity string    `json:"killer_identity" validate:"required_without=KillerEntity"`
	KillerEntity   string    `json:"killer_entity" validate:"required_without=KillerIdentity"`
	VictimIdentity string    `json:"victim_identity" validate:"required_without=VictimEntity"`
	VictimEntity   string    `json:"victim_entity" validate:"required_without=VictimIdentity"`
	OccurredAt     time.Time `json:"occurred_at"`
	FriendlyFire   bool      `json:"friendly_fire"`
	Suicide        bool      `json:"suicide"`
}

type KillAck struct {
	ID string `json:"id"`
}

// IngestKill buffers a kill until the match that owns it is ingested.
func (s *IngestService) IngestKill(ctx context.Context, in KillEventInput) (KillAck, error) {
	log := s.loggerFor(ctx)

	if err := payload.Validate(in); err != nil {
		log.Warn().Err(err).Msg("rejected kill event")
		return KillAck{}, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return KillAck{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	now := s.clock().UTC()
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	event := domain.KillEvent{
		ID:             id,
		SessionID:      in.SessionID,
		KillerIdentity: in.KillerIdentity,
		KillerEntity:   in.KillerEntity,
		VictimIdentity: in.VictimIdentity,
		VictimEntity:   in.VictimEntity,
		OccurredAt:     occurredAt,
		IsFriendlyFire: in.FriendlyFire,
		IsSuicide:      in.Suicide || selfKill(in),
		CreatedAt:      now,
	}
	if err := s.kills.Create(ctx, event); err != nil {
		log.Error().Err(err).Str("kill_id", id).Msg("failed to store kill event")
		return KillAck{}, fmt.Errorf("failed to store kill event: %w", err)
	}

	log.Debug().
		Str("kill_id", id).
		Str("session_id", in.SessionID).
		Bool("suicide", event.IsSuicide).
		Bool("friendly_fire", event.IsFriendlyFire).
		Msg("kill event buffered")
	return KillAck{ID: id}, nil
}

func selfKill(in KillEventInput) bool {
	if in.KillerIdentity != "" && in.KillerIdentity == in.VictimIdentity {
		return true
	}
	return in.KillerEntity != "" && in.KillerEntity == in.VictimEntity
}
