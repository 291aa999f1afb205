package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/catalog"
	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"go.uber.org/zap"
)

// StorySummary is a menu entry.
type StorySummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// StoryStatus is a story the user has entered, with its completion flag.
type StoryStatus struct {
	StoryID   string    `json:"storyId"`
	Title     string    `json:"title"`
	Finished  bool      `json:"isFinished"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the player's current position in a story.
type Session struct {
	Story     *catalog.Story
	NodeID    string
	Inventory Inventory
	Finished  bool
	// Resumed is false when the call created the progress row.
	Resumed bool
}

// Node returns the current node of the session.
func (s *Session) Node() (*catalog.Node, error) {
	return s.Story.Node(s.NodeID)
}

// ProgressionService defines the progression engine contract consumed by the orchestrator.
type ProgressionService interface {
	// Stories lists the playable stories in catalog order.
	Stories() []StorySummary

	// StartOrResume returns the saved position, or creates and persists the
	// initial one (first node, empty inventory) when the user is new to the story.
	StartOrResume(ctx context.Context, userID, storyID string) (*Session, error)

	// Advance traverses option from nodeID. Gate failures return models.ErrMissingItem
	// without any write; a failed progress write returns models.ErrStorageUnavailable.
	Advance(ctx context.Context, userID, storyID, nodeID string, option catalog.Option, inventory []string) (*Transition, error)

	// Choose applies a player's choice to the saved position. The read, the
	// nodeID check, the pick and the write happen under one session lock, so two
	// concurrent choices from the same node commit (and count) only once.
	// A story the user never started returns models.ErrNotStarted and writes nothing.
	Choose(ctx context.Context, userID, storyID, nodeID string, pick OptionPicker) (*Transition, error)

	// UserStories lists the stories the user has entered.
	UserStories(ctx context.Context, userID string) ([]StoryStatus, error)
}

// OptionPicker selects the option a player meant on the current node.
type OptionPicker func(node *catalog.Node) (catalog.Option, error)

type progressionServiceImpl struct {
	catalog  *catalog.Catalog
	progress interfaces.ProgressRepository
	recorder interfaces.SelectionRecorder
	roller   Roller
	locks    *sessionLocks
	metrics  *Metrics
	logger   *zap.Logger
}

// ServiceOption configures the progression service.
type ServiceOption func(*progressionServiceImpl)

// WithRoller replaces the random source used for chance options.
func WithRoller(r Roller) ServiceOption {
	return func(s *progressionServiceImpl) { s.roller = r }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *progressionServiceImpl) { s.metrics = m }
}

// NewProgressionService creates a new instance of ProgressionService.
func NewProgressionService(
	cat *catalog.Catalog,
	progress interfaces.ProgressRepository,
	recorder interfaces.SelectionRecorder,
	logger *zap.Logger,
	opts ...ServiceOption,
) ProgressionService {
	if cat == nil {
		panic("catalog cannot be nil for NewProgressionService")
	}
	if recorder == nil {
		recorder = NopSelectionRecorder()
	}
	s := &progressionServiceImpl{
		catalog:  cat,
		progress: progress,
		recorder: recorder,
		roller:   RandRoller{},
		locks:    newSessionLocks(),
		logger:   logger.Named("ProgressionService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *progressionServiceImpl) Stories() []StorySummary {
	stories := s.catalog.Stories()
	out := make([]StorySummary, 0, len(stories))
	for _, st := range stories {
		out = append(out, StorySummary{ID: st.ID, Title: st.Title})
	}
	return out
}

func (s *progressionServiceImpl) StartOrResume(ctx context.Context, userID, storyID string) (*Session, error) {
	log := s.logger.With(zap.String("userID", userID), zap.String("storyID", storyID))

	story, err := s.catalog.Get(storyID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID, storyID)
	defer unlock()

	saved, err := s.progress.Get(ctx, userID, storyID)
	switch {
	case err == nil:
		if _, nodeErr := story.Node(saved.NodeID); nodeErr != nil {
			log.Warn("Saved progress points to a node missing from the catalog", zap.String("nodeID", saved.NodeID))
		}
		s.metrics.session("resumed")
		log.Debug("Session resumed", zap.String("nodeID", saved.NodeID))
		return &Session{
			Story:     story,
			NodeID:    saved.NodeID,
			Inventory: Inventory(saved.Inventory).clone(),
			Finished:  saved.IsFinished,
			Resumed:   true,
		}, nil
	case !errors.Is(err, models.ErrNotFound):
		log.Error("Failed to read progress", zap.Error(err))
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	// Новая сессия: сохраняем начальную позицию сразу, чтобы повторный вход был идемпотентным.
	first := s.catalog.FirstNode(story)
	initial := &models.Progress{
		UserID:    userID,
		StoryID:   storyID,
		NodeID:    first,
		Inventory: []string{},
	}
	if err := s.progress.Upsert(ctx, initial); err != nil {
		log.Error("Failed to persist initial progress", zap.Error(err))
		return nil, asStorageUnavailable("failed to persist initial progress", err)
	}

	s.metrics.session("new")
	log.Info("Session started", zap.String("nodeID", first))
	return &Session{
		Story:     story,
		NodeID:    first,
		Inventory: Inventory{},
		Finished:  false,
	}, nil
}

func (s *progressionServiceImpl) Advance(ctx context.Context, userID, storyID, nodeID string, option catalog.Option, inventory []string) (*Transition, error) {
	log := s.logger.With(
		zap.String("userID", userID),
		zap.String("storyID", storyID),
		zap.String("nodeID", nodeID),
		zap.String("option", option.Text),
	)

	story, err := s.catalog.Get(storyID)
	if err != nil {
		return nil, err
	}
	if _, err := story.Node(nodeID); err != nil {
		return nil, err
	}

	var t *Transition
	err = s.withSession(userID, storyID, func() error {
		var err error
		t, err = s.commit(ctx, log, story, userID, storyID, nodeID, option, Inventory(inventory))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, log, userID, storyID, nodeID, option, t)
	return t, nil
}

func (s *progressionServiceImpl) Choose(ctx context.Context, userID, storyID, nodeID string, pick OptionPicker) (*Transition, error) {
	log := s.logger.With(
		zap.String("userID", userID),
		zap.String("storyID", storyID),
		zap.String("nodeID", nodeID),
	)

	story, err := s.catalog.Get(storyID)
	if err != nil {
		return nil, err
	}

	var (
		t      *Transition
		option catalog.Option
	)
	err = s.withSession(userID, storyID, func() error {
		saved, err := s.progress.Get(ctx, userID, storyID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			log.Info("Choice for a story that was never started")
			return models.ErrNotStarted
		case err != nil:
			log.Error("Failed to read progress", zap.Error(err))
			return fmt.Errorf("failed to read progress: %w", err)
		case saved.IsFinished:
			return models.ErrStoryFinished
		case saved.NodeID != nodeID:
			log.Info("Choice for a stale node", zap.String("currentNodeID", saved.NodeID))
			return models.ErrStaleNode
		}

		node, err := story.Node(saved.NodeID)
		if err != nil {
			return err
		}
		if option, err = pick(node); err != nil {
			return err
		}
		t, err = s.commit(ctx, log.With(zap.String("option", option.Text)), story, userID, storyID, saved.NodeID, option, Inventory(saved.Inventory))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, log.With(zap.String("option", option.Text)), userID, storyID, nodeID, option, t)
	return t, nil
}

// withSession runs fn holding the (user, story) lock.
func (s *progressionServiceImpl) withSession(userID, storyID string, fn func() error) error {
	unlock := s.locks.lock(userID, storyID)
	defer unlock()
	return fn()
}

// commit resolves the transition and persists it. Caller holds the session lock.
func (s *progressionServiceImpl) commit(ctx context.Context, log *zap.Logger, story *catalog.Story, userID, storyID, nodeID string, option catalog.Option, inventory Inventory) (*Transition, error) {
	t, err := resolveTransition(story, nodeID, option, inventory, s.roller)
	if err != nil {
		if errors.Is(err, models.ErrMissingItem) {
			s.metrics.transition(outcomeMissingItem)
			log.Info("Option gated by missing item", zap.String("requiredItem", option.RequiredItem))
		} else {
			log.Error("Failed to resolve transition", zap.Error(err))
		}
		return nil, err
	}
	if t.Chance != nil {
		s.metrics.chance(t.Chance.Success)
		log.Debug("Chance resolved", zap.Int("chance", t.Chance.Chance), zap.Int("roll", t.Chance.Roll), zap.Bool("success", t.Chance.Success))
	}

	err = s.progress.Upsert(ctx, &models.Progress{
		UserID:     userID,
		StoryID:    storyID,
		NodeID:     t.NodeID,
		Inventory:  []string(t.Inventory),
		IsFinished: t.Finished,
	})
	if err != nil {
		s.metrics.transition(outcomeStorageUnavailable)
		log.Error("Failed to persist transition", zap.String("targetNodeID", t.NodeID), zap.Error(err))
		return nil, asStorageUnavailable("failed to persist progress", err)
	}
	return t, nil
}

// record reports a committed selection. Runs after the session lock is released.
func (s *progressionServiceImpl) record(ctx context.Context, log *zap.Logger, userID, storyID, nodeID string, option catalog.Option, t *Transition) {
	s.recorder.Record(ctx, models.SelectionEvent{
		UserID:     userID,
		StoryID:    storyID,
		NodeID:     nodeID,
		OptionText: option.Text,
		SelectedAt: time.Now().UTC(),
	})

	if t.Finished {
		s.metrics.transition(outcomeFinished)
		log.Info("Story finished", zap.String("targetNodeID", t.NodeID))
	} else {
		s.metrics.transition(outcomeAdvanced)
		log.Debug("Advanced", zap.String("targetNodeID", t.NodeID))
	}
}

func (s *progressionServiceImpl) UserStories(ctx context.Context, userID string) ([]StoryStatus, error) {
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list user stories", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user stories: %w", err)
	}
	out := make([]StoryStatus, 0, len(rows))
	for _, row := range rows {
		status := StoryStatus{StoryID: row.StoryID, Finished: row.IsFinished, UpdatedAt: row.UpdatedAt}
		// Истории, удаленные из каталога, все равно показываем, но без заголовка.
		if st, err := s.catalog.Get(row.StoryID); err == nil {
			status.Title = st.Title
		}
		out = append(out, status)
	}
	return out, nil
}
