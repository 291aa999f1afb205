package interfaces

import (
	"context"

	"quest-server/internal/models"

	"github.com/google/uuid"
)

// OptionRegistry maps catalog options to persisted identifiers.
type OptionRegistry interface {
	// Register makes sure every key has an identifier. Existing keys keep theirs.
	Register(ctx context.Context, keys []models.OptionKey) error

	// OptionID returns the identifier of the option with the given text.
	// Returns models.ErrNotFound if the option was never registered.
	OptionID(ctx context.Context, storyID, nodeID, optionText string) (uuid.UUID, error)

	// Options lists registered options of a node keyed by identifier.
	Options(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]string, error)
}

// SelectionCounter accumulates how many times each option was chosen.
type SelectionCounter interface {
	IncrementSelection(ctx context.Context, storyID, nodeID string, optionID uuid.UUID) error
	Selections(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]int64, error)
}

// SelectionRecorder records an option selection on a best-effort basis.
// Implementations must swallow their own failures.
type SelectionRecorder interface {
	Record(ctx context.Context, event models.SelectionEvent)
}
