package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"quest-server/internal/interfaces/mocks"
	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stringsReader(s string) io.Reader { return strings.NewReader(s) }

func TestNodeStats(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)
	registry := new(mocks.OptionRegistry)
	counter := new(mocks.SelectionCounter)

	enter, jump, juggle := uuid.New(), uuid.New(), uuid.New()
	registry.On("Options", ctx, "cave", "hall").Return(map[uuid.UUID]string{
		enter: "enter", jump: "jump", juggle: "juggle key",
	}, nil).Once()
	counter.On("Selections", ctx, "cave", "hall").Return(map[uuid.UUID]int64{
		jump: 5, enter: 2,
	}, nil).Once()

	svc := service.NewStatsService(cat, registry, counter, zap.NewNop())
	got, err := svc.NodeStats(ctx, "cave", "hall")
	require.NoError(t, err)
	assert.Equal(t, []service.OptionStat{
		{Text: "enter", Count: 2},
		{Text: "jump", Count: 5},
		{Text: "juggle key", Count: 0},
	}, got)
}

func TestNodeStats_Errors(t *testing.T) {
	ctx := context.Background()
	cat := newTestCatalog(t)

	t.Run("unknown node", func(t *testing.T) {
		registry := new(mocks.OptionRegistry)
		counter := new(mocks.SelectionCounter)
		svc := service.NewStatsService(cat, registry, counter, zap.NewNop())

		_, err := svc.NodeStats(ctx, "cave", "nowhere")
		assert.ErrorIs(t, err, models.ErrNodeNotFound)
		registry.AssertNotCalled(t, "Options", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("counter failure", func(t *testing.T) {
		registry := new(mocks.OptionRegistry)
		counter := new(mocks.SelectionCounter)
		registry.On("Options", ctx, "s1", "a").Return(map[uuid.UUID]string{}, nil).Once()
		counter.On("Selections", ctx, "s1", "a").Return(nil, errors.New("redis down")).Once()
		svc := service.NewStatsService(cat, registry, counter, zap.NewNop())

		_, err := svc.NodeStats(ctx, "s1", "a")
		assert.Error(t, err)
	})
}
