package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/tasks"
)

// DeadLetterSource lists background tasks that exhausted their retries
type DeadLetterSource interface {
	DeadLetters() ([]tasks.DeadLetter, error)
}

// TaskHandler exposes background task state
type TaskHandler struct {
	source DeadLetterSource
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(source DeadLetterSource, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		source: source,
		logger: logger,
	}
}

// ListDeadLetters returns failed notification tasks, oldest first
func (h *TaskHandler) ListDeadLetters(c *gin.Context) {
	letters, err := h.source.DeadLetters()
	if err != nil {
		respondError(c, h.logger, err, "Failed to list dead letters")
		return
	}
	c.JSON(http.StatusOK, letters)
}
