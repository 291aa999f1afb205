package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"quest-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError(nil))

	deadline := fmt.Errorf("query: %w", context.DeadlineExceeded)
	err := storageError(deadline)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.ErrorIs(t, storageError(opErr), models.ErrStorageUnavailable)

	plain := errors.New("duplicate key value violates unique constraint")
	assert.Equal(t, plain, storageError(plain))
}
