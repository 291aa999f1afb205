package service

import (
	"context"
	"fmt"

	"quest-server/internal/catalog"
	"quest-server/internal/interfaces"

	"go.uber.org/zap"
)

// OptionStat is how many times an option of a node was chosen.
type OptionStat struct {
	Text  string `json:"text"`
	Count int64  `json:"count"`
}

// StatsService is the analytics read side of selection statistics.
type StatsService interface {
	NodeStats(ctx context.Context, storyID, nodeID string) ([]OptionStat, error)
}

type statsServiceImpl struct {
	catalog  *catalog.Catalog
	registry interfaces.OptionRegistry
	counter  interfaces.SelectionCounter
	logger   *zap.Logger
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(cat *catalog.Catalog, registry interfaces.OptionRegistry, counter interfaces.SelectionCounter, logger *zap.Logger) StatsService {
	return &statsServiceImpl{
		catalog:  cat,
		registry: registry,
		counter:  counter,
		logger:   logger.Named("StatsService"),
	}
}

// NodeStats returns counters in the node's option order; never-chosen options report zero.
func (s *statsServiceImpl) NodeStats(ctx context.Context, storyID, nodeID string) ([]OptionStat, error) {
	story, err := s.catalog.Get(storyID)
	if err != nil {
		return nil, err
	}
	node, err := story.Node(nodeID)
	if err != nil {
		return nil, err
	}

	options, err := s.registry.Options(ctx, storyID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered options: %w", err)
	}
	counts, err := s.counter.Selections(ctx, storyID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read selections: %w", err)
	}

	byText := make(map[string]int64, len(options))
	for id, text := range options {
		byText[text] += counts[id]
	}

	out := make([]OptionStat, 0, len(node.Options))
	for _, opt := range node.Options {
		out = append(out, OptionStat{Text: opt.Text, Count: byText[opt.Text]})
	}
	return out, nil
}
