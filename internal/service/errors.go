package service

import "errors"

var (
	// ErrNoActiveSeason is only logged by IngestMatch. Results are still
	// written but no season rows are touched.
	ErrNoActiveSeason = errors.New("no active season")
	// ErrDuplicateSession means every player in the report already has a
	// result for its session. Callers see a successful duplicate result.
	ErrDuplicateSession = errors.New("duplicate session")
)
