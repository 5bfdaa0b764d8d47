package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("op", nil))

	busy := classify("writing", errors.New("database is locked (5) (SQLITE_BUSY)"))
	assert.ErrorIs(t, busy, ErrTimeout)
	assert.NotErrorIs(t, busy, ErrStorageIO)

	deadline := classify("reading", context.DeadlineExceeded)
	assert.ErrorIs(t, deadline, ErrTimeout)

	io := classify("reading", errors.New("disk I/O error"))
	assert.ErrorIs(t, io, ErrStorageIO)
	assert.Contains(t, io.Error(), "disk I/O error")

	nf := classify("getting", ErrNotFound)
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.NotErrorIs(t, nf, ErrStorageIO)
}

func TestMigrationError(t *testing.T) {
	cause := classify("applying step", errors.New("no space left on device"))
	err := error(&MigrationError{From: 2, To: 3, Name: "sessions_add_api_id", Err: cause})

	assert.ErrorIs(t, err, ErrMigration)
	assert.ErrorIs(t, err, ErrStorageIO)
	assert.Contains(t, err.Error(), "2->3")
	assert.Contains(t, err.Error(), "sessions_add_api_id")
}
