package interfaces

import (
	"context"

	"quest-server/internal/models"
)

// ProgressRepository defines the interface for interacting with player progress data.
// One row exists per (user, story); rows are never deleted by gameplay code.
type ProgressRepository interface {
	// Get retrieves the player's progress for a specific story.
	// Returns models.ErrNotFound if the user has never entered the story.
	Get(ctx context.Context, userID, storyID string) (*models.Progress, error)

	// Upsert creates the progress row or overwrites the existing one in a single
	// statement keyed on (user_id, story_id).
	Upsert(ctx context.Context, progress *models.Progress) error

	// ListByUser returns the status of every story the user has entered.
	ListByUser(ctx context.Context, userID string) ([]models.StoryProgress, error)
}
