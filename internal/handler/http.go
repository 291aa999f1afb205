package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quest-server/internal/catalog"
	"quest-server/internal/models"
	"quest-server/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger reports whether a backing store is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionHandler обрабатывает HTTP запросы игроков.
type SessionHandler struct {
	progression service.ProgressionService
	stats       service.StatsService
	gatherer    prometheus.Gatherer
	pinger      Pinger
	logger      *zap.Logger
}

// NewSessionHandler создает новый SessionHandler. stats, gatherer and pinger may be nil.
func NewSessionHandler(p service.ProgressionService, s service.StatsService, gatherer prometheus.Gatherer, pinger Pinger, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		progression: p,
		stats:       s,
		gatherer:    gatherer,
		pinger:      pinger,
		logger:      logger.Named("SessionHandler"),
	}
}

// RegisterRoutes регистрирует маршруты.
func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	if e.Validator == nil {
		e.Validator = newRequestValidator()
	}
	e.GET("/healthz", h.healthz)
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/stories", h.listStories)

	users := e.Group("/users/:userID")
	{
		users.GET("/stories", h.listUserStories)
		users.POST("/stories/:storyID/session", h.startOrResume)
		users.POST("/stories/:storyID/choices", h.makeChoice)
		if h.stats != nil {
			users.GET("/stories/:storyID/stats/:nodeID", h.nodeStats)
		}
	}
}

// handleServiceError maps domain errors to HTTP statuses.
func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrMissingItem):
		statusCode = http.StatusUnprocessableEntity
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrStaleNode), errors.Is(err, models.ErrStoryFinished):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrUnknownOption), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrStorageUnavailable):
		statusCode = http.StatusServiceUnavailable
		apiErr = APIError{Message: "Storage temporarily unavailable, please retry"}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}

func (h *SessionHandler) healthz(c echo.Context) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request().Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, APIError{Message: "database unreachable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SessionHandler) listStories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.progression.Stories())
}

func (h *SessionHandler) listUserStories(c echo.Context) error {
	userID := c.Param("userID")
	stories, err := h.progression.UserStories(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stories)
}

func (h *SessionHandler) startOrResume(c echo.Context) error {
	userID, storyID := c.Param("userID"), c.Param("storyID")
	sess, err := h.progression.StartOrResume(c.Request().Context(), userID, storyID)
	if err != nil {
		return handleServiceError(c, err)
	}
	resp, err := renderNode(sess.Story, sess.NodeID, sess.Inventory, sess.Finished)
	if err != nil {
		return handleServiceError(c, err)
	}
	resp.Resumed = sess.Resumed
	return c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) makeChoice(c echo.Context) error {
	ctx := c.Request().Context()
	userID, storyID := c.Param("userID"), c.Param("storyID")

	var req choiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	req.Option = strings.TrimSpace(req.Option)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "nodeId and option are required: " + err.Error()})
	}

	// Текущая позиция всегда берется из хранилища, клиент лишь подтверждает, где он находится.
	t, err := h.progression.Choose(ctx, userID, storyID, req.NodeID, func(node *catalog.Node) (catalog.Option, error) {
		return matchOption(node, req.Option)
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	resp, err := renderNode(t.Story, t.NodeID, t.Inventory, t.Finished)
	if err != nil {
		return handleServiceError(c, err)
	}
	resp.Chance = t.Chance
	return c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) nodeStats(c echo.Context) error {
	storyID, nodeID := c.Param("storyID"), c.Param("nodeID")
	stats, err := h.stats.NodeStats(c.Request().Context(), storyID, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, NodeStatsResponse{StoryID: storyID, NodeID: nodeID, Options: stats})
}

func renderNode(story *catalog.Story, nodeID string, inventory []string, finished bool) (*NodeResponse, error) {
	node, err := story.Node(nodeID)
	if err != nil {
		return nil, err
	}
	resp := &NodeResponse{
		StoryID:    story.ID,
		NodeID:     node.ID,
		Text:       append([]string{}, node.Text...),
		Options:    make([]OptionDTO, 0, len(node.Options)),
		Inventory:  append([]string{}, inventory...),
		IsFinished: finished,
	}
	for i, opt := range node.Options {
		resp.Options = append(resp.Options, OptionDTO{Index: i + 1, Text: opt.Text})
	}
	return resp, nil
}
