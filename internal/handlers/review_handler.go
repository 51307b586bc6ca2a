package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"review-service/internal/memory"
	"review-service/internal/repository"
	"review-service/internal/selection"
	"review-service/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	Service *service.ReviewService
}

func NewReviewHandler(s *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{Service: s}
}

// BuildBatch assembles a review batch for the authenticated user.
func (h *ReviewHandler) BuildBatch(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	var req struct {
		QuestionsCount int `json:"questions_count"`
		OptionsCount   int `json:"options_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	questions, err := h.Service.BuildReviewBatch(context.Background(), userID, req.QuestionsCount, req.OptionsCount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": questions,
		"count":     len(questions),
	})
}

// SingleQuestion builds one question, for the given item or the
// highest-priority due item when item_id is omitted.
func (h *ReviewHandler) SingleQuestion(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	itemID := c.Query("item_id")
	optionsCount := queryInt(c, "options_count", 0)

	question, err := h.Service.BuildSingleQuestion(context.Background(), userID, itemID, optionsCount)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// SubmitAnswer grades one answer and returns the rescheduled review.
func (h *ReviewHandler) SubmitAnswer(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	var req struct {
		ItemID          string  `json:"item_id" binding:"required"`
		Quality         float64 `json:"quality"`
		GivenAnswer     string  `json:"given_answer"`
		TimeSpentMillis int64   `json:"time_spent_millis"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid answer format",
			"details": err.Error(),
		})
		return
	}

	result, err := h.Service.SubmitReview(context.Background(), userID, req.ItemID, req.Quality, req.GivenAnswer, req.TimeSpentMillis)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStats reports the user's due count and answer history totals.
func (h *ReviewHandler) GetStats(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	stats, err := h.Service.Stats(context.Background(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// writeError maps scheduler errors onto HTTP statuses.
func (h *ReviewHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, memory.ErrInvalidQuality), errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
	case errors.Is(err, service.ErrNoDueItems):
		c.JSON(http.StatusNotFound, gin.H{"error": "No due items"})
	case errors.Is(err, selection.ErrInsufficientOptions):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Not enough options to build question"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
