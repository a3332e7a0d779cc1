package data

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBErrorNil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBErrorNoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestMapDBErrorUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "voice_message_results_pkey",
	}
	err := MapDBError(pgErr)
	assert.ErrorIs(t, err, ErrDuplicateRecord)
	assert.Contains(t, err.Error(), "voice_message_results_pkey")
}

func TestMapDBErrorConstraintViolations(t *testing.T) {
	for _, code := range []string{pgerrcode.NotNullViolation, pgerrcode.CheckViolation} {
		err := MapDBError(&pgconn.PgError{Code: code, Message: "bad row"})
		assert.ErrorIs(t, err, ErrInvalidRecord, "code %s", code)
	}
}

func TestMapDBErrorPassThrough(t *testing.T) {
	original := errors.New("connection reset")
	assert.Same(t, original, MapDBError(original))

	assert.ErrorIs(t, MapDBError(context.Canceled), context.Canceled)

	unknown := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	assert.Same(t, error(unknown), MapDBError(unknown))
}
