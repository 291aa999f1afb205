package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	_ interfaces.OptionRegistry   = (*PgOptionRepository)(nil)
	_ interfaces.SelectionCounter = (*PgOptionRepository)(nil)
)

// PgOptionRepository stores option identifiers and their selection counters.
type PgOptionRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewPgOptionRepository creates the Postgres-backed option registry and selection counter.
func NewPgOptionRepository(pool *pgxpool.Pool, timeout time.Duration, logger *zap.Logger) *PgOptionRepository {
	return &PgOptionRepository{
		pool:    pool,
		timeout: timeout,
		logger:  logger.Named("PgOptionRepo"),
	}
}

const registerOptionQuery = `
INSERT INTO story_options (id, story_id, node_id, option_text)
VALUES ($1, $2, $3, $4)
ON CONFLICT (story_id, node_id, option_text) DO NOTHING`

const getOptionIDQuery = `
SELECT id FROM story_options
WHERE story_id = $1 AND node_id = $2 AND option_text = $3`

const listNodeOptionsQuery = `
SELECT id AS option_id, option_text
FROM story_options
WHERE story_id = $1 AND node_id = $2`

const incrementSelectionQuery = `
INSERT INTO option_selections (story_id, node_id, option_id, selections, updated_at)
VALUES ($1, $2, $3, 1, NOW())
ON CONFLICT (story_id, node_id, option_id) DO UPDATE SET
    selections = option_selections.selections + 1,
    updated_at = NOW()`

const listSelectionsQuery = `
SELECT option_id, selections
FROM option_selections
WHERE story_id = $1 AND node_id = $2`

// registerTimeoutFactor: регистрация выполняется один раз при старте и может быть объемной.
const registerTimeoutFactor = 10

func (r *PgOptionRepository) Register(ctx context.Context, keys []models.OptionKey) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout*registerTimeoutFactor)
	defer cancel()

	batch := &pgx.Batch{}
	for _, key := range keys {
		batch.Queue(registerOptionQuery, uuid.New(), key.StoryID, key.NodeID, key.Text)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range keys {
		if _, err := results.Exec(); err != nil {
			r.logger.Error("Failed to register option", zap.String("storyID", keys[i].StoryID), zap.String("nodeID", keys[i].NodeID), zap.Error(err))
			return storageError(fmt.Errorf("register option %d: %w", i, err))
		}
	}
	r.logger.Info("Options registered", zap.Int("count", len(keys)))
	return nil
}

func (r *PgOptionRepository) OptionID(ctx context.Context, storyID, nodeID, optionText string) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, getOptionIDQuery, storyID, nodeID, optionText).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, models.ErrNotFound
		}
		return uuid.Nil, storageError(err)
	}
	return id, nil
}

func (r *PgOptionRepository) Options(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []models.OptionSelection
	if err := pgxscan.Select(ctx, r.pool, &rows, listNodeOptionsQuery, storyID, nodeID); err != nil {
		return nil, storageError(err)
	}
	out := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		out[row.OptionID] = row.Text
	}
	return out, nil
}

func (r *PgOptionRepository) IncrementSelection(ctx context.Context, storyID, nodeID string, optionID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, incrementSelectionQuery, storyID, nodeID, optionID); err != nil {
		return storageError(err)
	}
	return nil
}

func (r *PgOptionRepository) Selections(ctx context.Context, storyID, nodeID string) (map[uuid.UUID]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []models.OptionSelection
	if err := pgxscan.Select(ctx, r.pool, &rows, listSelectionsQuery, storyID, nodeID); err != nil {
		return nil, storageError(err)
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.OptionID] = row.Count
	}
	return out, nil
}
