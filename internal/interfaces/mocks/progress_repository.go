package mocks

import (
	"context"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// ProgressRepository is a mock type for the ProgressRepository type
type ProgressRepository struct {
	mock.Mock
}

var _ interfaces.ProgressRepository = (*ProgressRepository)(nil)

// Get provides a mock function with given fields: ctx, userID, storyID
func (m *ProgressRepository) Get(ctx context.Context, userID, storyID string) (*models.Progress, error) {
	args := m.Called(ctx, userID, storyID)
	var r0 *models.Progress
	if v := args.Get(0); v != nil {
		r0 = v.(*models.Progress)
	}
	return r0, args.Error(1)
}

// Upsert provides a mock function with given fields: ctx, progress
func (m *ProgressRepository) Upsert(ctx context.Context, progress *models.Progress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

// ListByUser provides a mock function with given fields: ctx, userID
func (m *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.StoryProgress, error) {
	args := m.Called(ctx, userID)
	var r0 []models.StoryProgress
	if v := args.Get(0); v != nil {
		r0 = v.([]models.StoryProgress)
	}
	return r0, args.Error(1)
}
