package database

import (
	"context"
	"errors"
	"time"

	"quest-server/internal/interfaces"
	"quest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ProgressRepository = (*pgProgressRepository)(nil)

type pgProgressRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *zap.Logger
}

// NewPgProgressRepository creates a new repository instance.
// Every call is bounded by timeout; expiry surfaces as models.ErrStorageUnavailable.
func NewPgProgressRepository(pool *pgxpool.Pool, timeout time.Duration, logger *zap.Logger) interfaces.ProgressRepository {
	return &pgProgressRepository{
		pool:    pool,
		timeout: timeout,
		logger:  logger.Named("PgProgressRepo"),
	}
}

const getProgressQuery = `
SELECT user_id, story_id, node_id, inventory, is_finished, created_at, updated_at
FROM progress
WHERE user_id = $1 AND story_id = $2`

const upsertProgressQuery = `
INSERT INTO progress (user_id, story_id, node_id, inventory, is_finished, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id, story_id) DO UPDATE SET
    node_id = EXCLUDED.node_id,
    inventory = EXCLUDED.inventory,
    is_finished = EXCLUDED.is_finished,
    updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`

const listProgressByUserQuery = `
SELECT story_id, is_finished, updated_at
FROM progress
WHERE user_id = $1
ORDER BY updated_at DESC`

func (r *pgProgressRepository) Get(ctx context.Context, userID, storyID string) (*models.Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logFields := []zap.Field{zap.String("userID", userID), zap.String("storyID", storyID)}
	progress := &models.Progress{}
	var inventory pq.StringArray

	err := r.pool.QueryRow(ctx, getProgressQuery, userID, storyID).Scan(
		&progress.UserID,
		&progress.StoryID,
		&progress.NodeID,
		&inventory,
		&progress.IsFinished,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get progress", append(logFields, zap.Error(err))...)
		return nil, storageError(err)
	}
	progress.Inventory = []string(inventory)

	r.logger.Debug("Retrieved progress", append(logFields, zap.String("nodeID", progress.NodeID))...)
	return progress, nil
}

func (r *pgProgressRepository) Upsert(ctx context.Context, progress *models.Progress) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logFields := []zap.Field{
		zap.String("userID", progress.UserID),
		zap.String("storyID", progress.StoryID),
		zap.String("nodeID", progress.NodeID),
		zap.Bool("finished", progress.IsFinished),
	}

	inventory := progress.Inventory
	if inventory == nil {
		inventory = []string{}
	}

	err := r.pool.QueryRow(ctx, upsertProgressQuery,
		progress.UserID,
		progress.StoryID,
		progress.NodeID,
		pq.Array(inventory),
		progress.IsFinished,
		time.Now().UTC(),
	).Scan(&progress.CreatedAt, &progress.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert progress", append(logFields, zap.Error(err))...)
		return storageError(err)
	}

	r.logger.Debug("Upserted progress", logFields...)
	return nil
}

func (r *pgProgressRepository) ListByUser(ctx context.Context, userID string) ([]models.StoryProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []models.StoryProgress
	if err := pgxscan.Select(ctx, r.pool, &rows, listProgressByUserQuery, userID); err != nil {
		r.logger.Error("Failed to list progress", zap.String("userID", userID), zap.Error(err))
		return nil, storageError(err)
	}
	return rows, nil
}
