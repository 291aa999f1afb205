package service

import (
	"errors"
	"fmt"

	"quest-server/internal/models"
)

// MissingItemError is returned by Advance when the option is gated by an item
// the player does not hold. It matches models.ErrMissingItem.
type MissingItemError struct {
	Item   string
	Option string
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("option %q requires item %q", e.Option, e.Item)
}

func (e *MissingItemError) Is(target error) bool {
	return target == models.ErrMissingItem
}

// asStorageUnavailable makes sure a failed transactional write is reported as retryable.
func asStorageUnavailable(op string, err error) error {
	if errors.Is(err, models.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
}
