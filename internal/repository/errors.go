package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("conflict")
	// ErrTxConflict marks contention on the write lock or a lost claim on a
	// buffered kill. The whole per-match transaction may be re-run.
	ErrTxConflict = errors.New("transaction conflict")
)

// MapSQLiteError translates sqlite3 result codes into the errors above. The
// original error stays in the chain.
func MapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTxConflict) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %w", ErrTxConflict, err)
		case sqlite3.ErrConstraint:
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
				return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
			case sqlite3.ErrConstraintForeignKey:
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
		}
	}
	return err
}
