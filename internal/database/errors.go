package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"quest-server/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// storageError marks timeouts and connectivity failures as models.ErrStorageUnavailable.
// Other errors (constraint violations, bad data) are returned unchanged.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}
	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
