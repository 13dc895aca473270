// Package payload turns the raw match report posted by a game server into a
// typed Match. Nothing past this boundary sees the wire shape.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Report is the wire shape of a completed match.
type Report struct {
	SessionID      string            `json:"session_id" validate:"required"`
	Timestamp      time.Time         `json:"timestamp"`
	Mission        string            `json:"mission"`
	Factions       []Faction         `json:"factions" validate:"dive"`
	Players        []Player          `json:"players" validate:"dive"`
	PlayerEntities map[string]string `json:"player_entities" validate:"dive,required"`
	Kills          []Kill            `json:"kills" validate:"dive"`
	Objectives     []Objective       `json:"objectives" validate:"dive"`
}

type Faction struct {
	Key    string  `json:"key" validate:"required"`
	Groups []Group `json:"groups" validate:"dive"`
}

type Group struct {
	ID        string     `json:"id"`
	Playables []Playable `json:"playables" validate:"dive"`
}

type Playable struct {
	EntityID string `json:"entity_id" validate:"required"`
}

type Player struct {
	Identity string `json:"identity" validate:"required"`
	Name     string `json:"name"`
}

// Kill endpoints are entity ids. Time is seconds since mission start.
type Kill struct {
	Instigator   string  `json:"instigator" validate:"required"`
	Victim       string  `json:"victim" validate:"required"`
	Time         float64 `json:"time" validate:"gte=0"`
	FriendlyFire bool    `json:"friendly_fire"`
}

type Objective struct {
	Faction string `json:"faction" validate:"required"`
	Name    string `json:"name"`
	Score   int    `json:"score" validate:"gte=0"`
}

// Match is the normalized report.
type Match struct {
	SessionID string
	Timestamp time.Time // zero when the report carried none
	Mission   string
	// Factions keeps declaration order; FactionEntities maps each key to its
	// playable entity ids.
	Factions        []string
	FactionEntities map[string][]string
	PlayerEntities  map[string]string
	Players         []Player
	Kills           []Kill
	Objectives      []Objective
	// FactionScores sums objective scores per faction. Every declared
	// faction is present.
	FactionScores map[string]int
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize parses and validates raw. Any structural problem yields an error
// matching ErrMalformedPayload; use FieldErrors for the details.
func Normalize(raw []byte) (Match, error) {
	var report Report
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&report); err != nil {
		return Match{}, newMalformed(FieldError{Field: "body", Message: decodeMessage(err)})
	}
	if err := check(report); err != nil {
		return Match{}, err
	}
	return build(report), nil
}

// Validate runs struct validation on v and reports failures as a malformed
// payload error keyed by JSON field paths.
func Validate(v any) error {
	if fields := validationFields(v); len(fields) > 0 {
		return newMalformed(fields...)
	}
	return nil
}

func validationFields(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return fields
}

func check(report Report) error {
	fields := validationFields(report)
	if len(report.Factions) == 0 && len(report.Players) == 0 {
		fields = append(fields, FieldError{
			Field:   "factions",
			Message: "faction tree and player list are both missing",
		})
	}
	if len(fields) > 0 {
		return newMalformed(fields...)
	}
	return nil
}

func build(report Report) Match {
	m := Match{
		SessionID:       report.SessionID,
		Timestamp:       report.Timestamp.UTC(),
		Mission:         report.Mission,
		FactionEntities: make(map[string][]string, len(report.Factions)),
		PlayerEntities:  make(map[string]string, len(report.PlayerEntities)),
		Kills:           report.Kills,
		Objectives:      report.Objectives,
		FactionScores:   make(map[string]int, len(report.Factions)),
	}

	for _, f := range report.Factions {
		if _, seen := m.FactionEntities[f.Key]; !seen {
			m.Factions = append(m.Factions, f.Key)
			m.FactionEntities[f.Key] = nil
			m.FactionScores[f.Key] = 0
		}
		for _, g := range f.Groups {
			for _, p := range g.Playables {
				m.FactionEntities[f.Key] = append(m.FactionEntities[f.Key], p.EntityID)
			}
		}
	}

	for identity, entity := range report.PlayerEntities {
		m.PlayerEntities[identity] = entity
	}

	seen := make(map[string]struct{}, len(report.Players))
	for _, p := range report.Players {
		if _, dup := seen[p.Identity]; dup {
			continue
		}
		seen[p.Identity] = struct{}{}
		m.Players = append(m.Players, p)
	}

	for _, o := range report.Objectives {
		m.FactionScores[o.Faction] += o.Score
	}
	return m
}

func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("invalid JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr) && typeErr.Field == "":
		return "body must be a JSON object"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	default:
		return err.Error()
	}
}

// PeekSessionID extracts the session id without validating the rest of the
// report. It returns "" when raw is not a JSON object carrying one.
func PeekSessionID(raw []byte) string {
	var head struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.SessionID
}
