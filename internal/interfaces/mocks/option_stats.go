package mocks

import (
	"context"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// OptionRegistry is a mock type for the OptionRegistry type
type OptionRegistry struct {
	mock.Mock
}

var _ interfaces.OptionRegistry = (*OptionRegistry)(nil)

func (m *OptionRegistry) Register(ctx context.Context, keys []models.OptionKey) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *OptionRegistry) OptionID(ctx context.Context, storyID, nodeID, optionText string) (uuid.UUID, error) {
	args := m.Called(ctx, storyID, nodeID, optionText)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *OptionRegistry) Options(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, storyID, nodeID)
	var r0 map[uuid.UUID]string
	if v := args.Get(0); v != nil {
		r0 = v.(map[uuid.UUID]string)
	}
	return r0, args.Error(1)
}

// SelectionCounter is a mock type for the SelectionCounter type
type SelectionCounter struct {
	mock.Mock
}

var _ interfaces.SelectionCounter = (*SelectionCounter)(nil)

func (m *SelectionCounter) IncrementSelection(ctx context.Context, storyID, nodeID string, optionID uuid.UUID) error {
	args := m.Called(ctx, storyID, nodeID, optionID)
	return args.Error(0)
}

func (m *SelectionCounter) Selections(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, storyID, nodeID)
	var r0 map[uuid.UUID]int64
	if v := args.Get(0); v != nil {
		r0 = v.(map[uuid.UUID]int64)
	}
	return r0, args.Error(1)
}

// SelectionRecorder is a mock type for the SelectionRecorder type
type SelectionRecorder struct {
	mock.Mock
}

var _ interfaces.SelectionRecorder = (*SelectionRecorder)(nil)

func (m *SelectionRecorder) Record(ctx context.Context, event models.SelectionEvent) {
	m.Called(ctx, event)
}
