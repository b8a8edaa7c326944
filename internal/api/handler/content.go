package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type createPostRequest struct {
	Body     string   `json:"body" binding:"required"`
	Category string   `json:"category" binding:"required"`
	Tags     []string `json:"tags"`
}

type createReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

type createMessageRequest struct {
	Body string `json:"body" binding:"required"`
	Kind string `json:"kind"`
}

// CreatePost accepts an anonymous post, persists it and runs triage. The
// submission always succeeds when the write does; classification never blocks
// it.
func (h *Handler) CreatePost(c *gin.Context) {
	pseudonym, err := h.pseudonymFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := &models.Post{
		AuthorPseudonym: pseudonym,
		Body:            req.Body,
		Category:        models.Category(req.Category),
		Tags:            pq.StringArray(req.Tags),
	}
	if err := h.Storage.SavePost(post); err != nil {
		// the client discards its placeholder and restores the draft
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed", "body": req.Body})
		return
	}

	esc, err := h.Escalations.HandleNewContent(post.ID, models.KindPost, post.Body, post.Category)
	if err != nil {
		log.Printf("ERROR: Triage failed for post %s: %v", post.ID, err)
	}
	if esc != nil {
		post.Status = models.ContentEscalated
	}

	c.JSON(http.StatusCreated, post)
}

// CreateReply stores a reply, fans it out on the post channel and runs
// triage on the reply body.
func (h *Handler) CreateReply(c *gin.Context) {
	pseudonym, err := h.pseudonymFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	postID := c.Param("id")
	post, err := h.Storage.GetPostByID(postID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := &models.Reply{
		PostID:          postID,
		AuthorPseudonym: pseudonym,
		Body:            req.Body,
	}
	if err := h.Storage.SaveReply(reply); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed", "body": req.Body})
		return
	}

	h.publishRecord(models.EventInsert, models.ChannelPost(postID), reply)

	if _, err := h.Escalations.HandleNewContent(reply.ID, models.KindReply, reply.Body, post.Category); err != nil {
		log.Printf("ERROR: Triage failed for reply %s: %v", reply.ID, err)
	}

	c.JSON(http.StatusCreated, reply)
}

// CreateMessage stores a chat message and fans it out on the session channel.
// The authoritative echo is what reconciles the sender's local placeholder.
func (h *Handler) CreateMessage(c *gin.Context) {
	pseudonym, err := h.pseudonymFromRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	sessionID := c.Param("id")

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := &models.ChatMessage{
		SessionID:       sessionID,
		SenderPseudonym: pseudonym,
		Body:            req.Body,
		Kind:            req.Kind,
	}
	if err := h.Storage.SaveChatMessage(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write failed", "body": req.Body})
		return
	}

	channel := models.ChannelSession(sessionID)
	if msg.Kind == "typing" {
		channel = models.ChannelTyping(sessionID)
	} else if msg.Kind == "reaction" {
		channel = models.ChannelReactions(sessionID)
	}
	h.publishRecord(models.EventInsert, channel, msg)

	if msg.Kind == "text" {
		if _, err := h.Escalations.HandleNewContent(msg.ID, models.KindMessage, msg.Body, models.CategoryGeneral); err != nil {
			log.Printf("ERROR: Triage failed for message %s: %v", msg.ID, err)
		}
	}

	c.JSON(http.StatusCreated, msg)
}

// ReportPost records a user report against a post and lets the escalation
// service decide whether the volume crosses a threshold.
func (h *Handler) ReportPost(c *gin.Context) {
	postID := c.Param("id")

	esc, err := h.Escalations.HandleReport(postID, models.KindPost)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}

	resp := gin.H{"reported": true}
	if esc != nil {
		resp["escalation"] = esc
	}
	c.JSON(http.StatusOK, resp)
}

// GetSessionHistory returns the stored messages of a session in order.
func (h *Handler) GetSessionHistory(c *gin.Context) {
	history, err := h.Storage.GetSessionHistory(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) publishRecord(eventType models.EventType, channel string, record interface{}) {
	raw, err := json.Marshal(record)
	if err != nil {
		log.Printf("ERROR: Failed to encode record for %s: %v", channel, err)
		return
	}
	evt := models.Event{Type: eventType, Channel: channel, Record: raw}
	if err := h.Storage.PublishEvent(evt); err != nil {
		log.Printf("ERROR: Failed to publish on %s: %v", channel, err)
	}
}
