package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quest-server/internal/catalog"
	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryProgress is a goroutine-safe in-memory ProgressRepository.
type memoryProgress struct {
	mu   sync.Mutex
	rows map[string]models.Progress
}

func newMemoryProgress(rows ...models.Progress) *memoryProgress {
	m := &memoryProgress{rows: make(map[string]models.Progress)}
	for _, r := range rows {
		m.rows[r.UserID+"/"+r.StoryID] = r
	}
	return m
}

func (m *memoryProgress) Get(ctx context.Context, userID, storyID string) (*models.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[userID+"/"+storyID]
	if !ok {
		return nil, models.ErrNotFound
	}
	r.Inventory = append([]string{}, r.Inventory...)
	return &r, nil
}

func (m *memoryProgress) Upsert(ctx context.Context, p *models.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *p
	r.Inventory = append([]string{}, p.Inventory...)
	m.rows[p.UserID+"/"+p.StoryID] = r
	return nil
}

func (m *memoryProgress) ListByUser(ctx context.Context, userID string) ([]models.StoryProgress, error) {
	return nil, nil
}

// countingRecorder counts selections. When block is set, the first call
// signals entered and waits until release is closed.
type countingRecorder struct {
	calls   atomic.Int32
	block   bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingRecorder() *countingRecorder {
	return &countingRecorder{block: true, entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *countingRecorder) Record(ctx context.Context, event models.SelectionEvent) {
	if r.calls.Add(1) == 1 && r.block {
		close(r.entered)
		<-r.release
	}
}

func pickText(text string) service.OptionPicker {
	return func(node *catalog.Node) (catalog.Option, error) {
		opt, ok := node.Option(text)
		if !ok {
			return catalog.Option{}, models.ErrUnknownOption
		}
		return opt, nil
	}
}

func TestChoose_CommitsFromSavedPosition(t *testing.T) {
	repo := newMemoryProgress(models.Progress{UserID: "42", StoryID: "cave", NodeID: "entrance", Inventory: []string{"map"}})
	recorder := &countingRecorder{}
	svc := service.NewProgressionService(newTestCatalog(t), repo, recorder, zap.NewNop())

	tr, err := svc.Choose(context.Background(), "42", "cave", "entrance", pickText("take torch"))
	require.NoError(t, err)
	assert.Equal(t, "cave", tr.Story.ID)
	assert.Equal(t, "hall", tr.NodeID)
	assert.Equal(t, service.Inventory{"map", "torch"}, tr.Inventory)
	assert.EqualValues(t, 1, recorder.calls.Load())

	saved, err := repo.Get(context.Background(), "42", "cave")
	require.NoError(t, err)
	assert.Equal(t, "hall", saved.NodeID)
	assert.Equal(t, []string{"map", "torch"}, saved.Inventory)
}

func TestChoose_NeverStartedStoryWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.On("Get", ctx, "42", "cave").Return(nil, models.ErrNotFound).Once()

	_, err := f.svc.Choose(ctx, "42", "cave", "entrance", pickText("take torch"))
	assert.ErrorIs(t, err, models.ErrNotStarted)
	assert.ErrorIs(t, err, models.ErrStaleNode)
	f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	f.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestChoose_RejectionsWriteNothing(t *testing.T) {
	tests := []struct {
		name   string
		saved  *models.Progress
		nodeID string
		option string
		want   error
	}{
		{"stale node", &models.Progress{NodeID: "hall"}, "entrance", "take torch", models.ErrStaleNode},
		{"finished", &models.Progress{NodeID: "pit", IsFinished: true}, "pit", "take torch", models.ErrStoryFinished},
		{"unknown option", &models.Progress{NodeID: "entrance"}, "entrance", "fly", models.ErrUnknownOption},
		{"missing item", &models.Progress{NodeID: "hall"}, "hall", "enter", models.ErrMissingItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.repo.On("Get", ctx, "42", "cave").Return(tt.saved, nil).Once()

			_, err := f.svc.Choose(ctx, "42", "cave", tt.nodeID, pickText(tt.option))
			assert.ErrorIs(t, err, tt.want)
			f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestChoose_UnknownStory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Choose(context.Background(), "42", "nope", "a", pickText("opt1"))
	assert.ErrorIs(t, err, models.ErrStoryNotFound)
}

func TestChoose_ConcurrentChoicesFromSameNodeCommitOnce(t *testing.T) {
	repo := newMemoryProgress(models.Progress{UserID: "42", StoryID: "cave", NodeID: "entrance", Inventory: []string{}})
	recorder := &countingRecorder{}
	svc := service.NewProgressionService(newTestCatalog(t), repo, recorder, zap.NewNop())

	const players = 8
	var (
		wg        sync.WaitGroup
		committed atomic.Int32
		stale     atomic.Int32
	)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := "take torch"
			if i%2 == 1 {
				text = "go dark"
			}
			_, err := svc.Choose(context.Background(), "42", "cave", "entrance", pickText(text))
			switch {
			case err == nil:
				committed.Add(1)
			case assert.ErrorIs(t, err, models.ErrStaleNode):
				stale.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, committed.Load())
	assert.EqualValues(t, players-1, stale.Load())
	assert.EqualValues(t, 1, recorder.calls.Load(), "selection counted once")
}

func TestAdvance_StatsRecordingDoesNotHoldSessionLock(t *testing.T) {
	cat := newTestCatalog(t)
	repo := newMemoryProgress()
	recorder := newBlockingRecorder()
	svc := service.NewProgressionService(cat, repo, recorder, zap.NewNop())
	ctx := context.Background()
	opt := option(t, cat, "cave", "entrance", "go dark")

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Advance(ctx, "1", "cave", "entrance", opt, nil)
		firstDone <- err
	}()
	select {
	case <-recorder.entered:
	case <-time.After(time.Second):
		t.Fatal("first advance never reached stats recording")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Advance(ctx, "272", "cave", "entrance", opt, nil)
		assert.NoError(t, err)
		_, err = svc.Advance(ctx, "1", "cave", "entrance", opt, nil)
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("advance waited on another call's stats recording")
	}

	close(recorder.release)
	require.NoError(t, <-firstDone)
	assert.EqualValues(t, 3, recorder.calls.Load())
}

func TestChoose_StatsRecordingDoesNotHoldSessionLock(t *testing.T) {
	repo := newMemoryProgress(
		models.Progress{UserID: "1", StoryID: "cave", NodeID: "entrance"},
		models.Progress{UserID: "272", StoryID: "cave", NodeID: "entrance"},
	)
	recorder := newBlockingRecorder()
	svc := service.NewProgressionService(newTestCatalog(t), repo, recorder, zap.NewNop())
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Choose(ctx, "1", "cave", "entrance", pickText("go dark"))
		firstDone <- err
	}()
	select {
	case <-recorder.entered:
	case <-time.After(time.Second):
		t.Fatal("first choice never reached stats recording")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Choose(ctx, "272", "cave", "entrance", pickText("go dark"))
		assert.NoError(t, err)
		_, err = svc.Choose(ctx, "1", "cave", "hall", pickText("jump"))
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("choice waited on another call's stats recording")
	}

	close(recorder.release)
	require.NoError(t, <-firstDone)
}
