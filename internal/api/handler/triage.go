package handler

import (
	"errors"
	"net/http"

	"peerhaven/backend/internal/escalation"
	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/queue"
	"peerhaven/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// GetQueue returns the staff review queue: every non-archived post paired
// with its escalation, in priority order.
func (h *Handler) GetQueue(c *gin.Context) {
	if _, err := h.staffFromRequest(c); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	posts, err := h.Storage.ListActivePosts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue unavailable"})
		return
	}
	escalations, err := h.Storage.ListEscalations(storage.EscalationFilter{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue unavailable"})
		return
	}

	byContent := make(map[string]*models.Escalation, len(escalations))
	for i := range escalations {
		byContent[escalations[i].ContentID] = &escalations[i]
	}

	items := make([]queue.Item, 0, len(posts))
	for _, post := range posts {
		items = append(items, queue.Item{
			ContentID:     post.ID,
			ReportedCount: post.ReportedCount,
			CreatedAt:     post.CreatedAt,
			Escalation:    byContent[post.ID],
		})
	}

	c.JSON(http.StatusOK, queue.Order(items))
}

// GetEscalations lists escalation records, optionally filtered by status.
func (h *Handler) GetEscalations(c *gin.Context) {
	if _, err := h.staffFromRequest(c); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	filter := storage.EscalationFilter{
		Status:     models.EscalationStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
	}
	escalations, err := h.Storage.ListEscalations(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "escalations unavailable"})
		return
	}
	c.JSON(http.StatusOK, escalations)
}

// AssignEscalation claims an escalation for the calling staff member.
func (h *Handler) AssignEscalation(c *gin.Context) {
	staff, err := h.staffFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	esc, err := h.Escalations.Assign(c.Param("id"), staff.ID)
	switch {
	case errors.Is(err, escalation.ErrAlreadyAssigned):
		// the refreshed record tells the caller who won
		c.JSON(http.StatusConflict, gin.H{"error": "already assigned", "escalation": esc})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "escalation not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "assignment failed"})
	default:
		c.JSON(http.StatusOK, esc)
	}
}

// ResolveEscalation closes an in-progress escalation.
func (h *Handler) ResolveEscalation(c *gin.Context) {
	staff, err := h.staffFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	esc, err := h.Escalations.Resolve(c.Param("id"), staff)
	h.respondTransition(c, esc, err)
}

// ReopenEscalation drops a resolved escalation back into the queue.
func (h *Handler) ReopenEscalation(c *gin.Context) {
	staff, err := h.staffFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	esc, err := h.Escalations.Reopen(c.Param("id"), staff)
	h.respondTransition(c, esc, err)
}

// GetModerationHistory returns the append-only audit trail for a content
// item.
func (h *Handler) GetModerationHistory(c *gin.Context) {
	if _, err := h.staffFromRequest(c); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	actions, err := h.Storage.ListModerationActions(c.Param("contentId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, actions)
}

func (h *Handler) respondTransition(c *gin.Context, esc *models.Escalation, err error) {
	switch {
	case errors.Is(err, escalation.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this escalation"})
	case errors.Is(err, escalation.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "escalation is not in a state this applies to"})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "escalation not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transition failed"})
	default:
		c.JSON(http.StatusOK, esc)
	}
}
