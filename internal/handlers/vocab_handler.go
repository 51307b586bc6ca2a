package handlers

import (
	"context"
	"errors"
	"net/http"

	"review-service/internal/models"
	"review-service/internal/repository"
	"review-service/internal/service"

	"github.com/gin-gonic/gin"
)

// VocabHandler exposes CRUD for learner vocabulary and the distractor pool.
type VocabHandler struct {
	Service *service.VocabService
}

func NewVocabHandler(s *service.VocabService) *VocabHandler {
	return &VocabHandler{Service: s}
}

func (h *VocabHandler) ListEntries(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")

	entries, err := h.Service.ListEntries(context.Background(), ownerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *VocabHandler) GetEntry(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")
	id := c.Param("id")

	entry, err := h.Service.GetEntry(context.Background(), ownerID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *VocabHandler) CreateEntry(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")

	var entry models.VocabEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid entry format",
			"details": err.Error(),
		})
		return
	}
	if err := h.Service.CreateEntry(context.Background(), ownerID, &entry); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *VocabHandler) UpdateEntry(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")
	id := c.Param("id")

	var update map[string]interface{}
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid update format",
			"details": err.Error(),
		})
		return
	}
	if err := h.Service.UpdateEntry(context.Background(), ownerID, id, update); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *VocabHandler) DeleteEntry(c *gin.Context) {
	ownerID := c.GetHeader("X-User-ID")
	id := c.Param("id")

	if err := h.Service.DeleteEntry(context.Background(), ownerID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *VocabHandler) ListPool(c *gin.Context) {
	entries, err := h.Service.ListPool(context.Background())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *VocabHandler) AddPoolEntry(c *gin.Context) {
	var entry models.PoolEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid entry format",
			"details": err.Error(),
		})
		return
	}
	if err := h.Service.AddPoolEntry(context.Background(), &entry); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *VocabHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}
