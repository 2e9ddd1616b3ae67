package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyError(t *testing.T) {
	unique := &pgconn.PgError{Code: pgErrUniqueViolation}
	assert.True(t, isDuplicateKeyError(unique))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("insert: %w", unique)))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23502"}))
	assert.False(t, isDuplicateKeyError(errors.New("boom")))
	assert.False(t, isDuplicateKeyError(nil))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, isNotFoundError(fmt.Errorf("scan: %w", pgx.ErrNoRows)))
	assert.False(t, isNotFoundError(errors.New("boom")))
}
