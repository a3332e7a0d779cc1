package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by the history repository.
var (
	ErrHistoryNotConfigured = errors.New("history store is not configured")
	ErrRecordingURLRequired = errors.New("recording url is required")
	ErrRecordingIDRequired  = errors.New("recording identifier is required")
	ErrRecordNotFound       = errors.New("processed message record not found")
	ErrDuplicateRecord      = errors.New("processed message record already exists")
	ErrInvalidRecord        = errors.New("processed message record is invalid")
)

// MapDBError normalizes driver-level errors into the package sentinels so
// callers can branch with errors.Is instead of inspecting SQLSTATE codes.
// Unrecognized errors pass through unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrRecordNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateRecord, pgErr.ConstraintName)
	case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
		return fmt.Errorf("%w: %s", ErrInvalidRecord, pgErr.Message)
	default:
		return err
	}
}
