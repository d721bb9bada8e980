package handlers

import (
	"net/http"
	"strings"
	"time"

	"askdb/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListChatSessionsHandler returns all chat sessions (newest first).
// @Summary      List chat sessions
// @Tags         Chat
// @Produce      json
// @Success      200  {array}  models.ChatSession
// @Router       /api/chat/sessions [get]
func (h *Handlers) ListChatSessionsHandler(c *gin.Context) {
	if err := h.db.EnsureDefaultChatSession(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ensure default session"})
		return
	}
	sessions, err := h.db.ListChatSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// CreateChatSessionHandler creates a new chat session.
// @Summary      Create a new chat session
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        body  body      object  false  "Optional: { \"title\": \"New chat\" }"
// @Success      201   {object}  models.ChatSession
// @Router       /api/chat/sessions [post]
func (h *Handlers) CreateChatSessionHandler(c *gin.Context) {
	var body struct {
		Title string `json:"title"`
	}
	_ = c.ShouldBindJSON(&body)
	title := strings.TrimSpace(body.Title)
	if title == "" {
		title = "New chat"
	}
	now := time.Now().Format(time.RFC3339)
	sess := &models.ChatSession{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.db.StoreChatSession(sess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GetChatSessionHandler returns one session with its messages.
// @Summary      Get a chat session with messages
// @Tags         Chat
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  object  "{ \"session\": ChatSession, \"messages\": ChatTurn[] }"
// @Router       /api/chat/sessions/{id} [get]
func (h *Handlers) GetChatSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}
	if sessionID == models.DefaultChatSessionID {
		_ = h.db.EnsureDefaultChatSession()
	}
	sess, err := h.db.GetChatSession(sessionID)
	if err != nil || sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	messages, err := h.db.GetSessionMessages(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "messages": messages})
}

// UpdateChatSessionHandler updates session title.
// @Summary      Update chat session title
// @Tags         Chat
// @Accept       json
// @Param        id    path      string  true  "Session ID"
// @Param        body  body      object  true  "{ \"title\": \"New title\" }"
// @Success      200   {object}  models.ChatSession
// @Router       /api/chat/sessions/{id} [put]
func (h *Handlers) UpdateChatSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}
	if err := h.db.UpdateChatSessionTitle(sessionID, title); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	sess, _ := h.db.GetChatSession(sessionID)
	c.JSON(http.StatusOK, sess)
}

// DeleteChatSessionHandler deletes a session and all its messages.
// @Summary      Delete a chat session
// @Tags         Chat
// @Param        id   path      string  true  "Session ID"
// @Success      204  "No Content"
// @Router       /api/chat/sessions/{id} [delete]
func (h *Handlers) DeleteChatSessionHandler(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session id required"})
		return
	}
	if sessionID == models.DefaultChatSessionID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete default session"})
		return
	}
	if err := h.db.DeleteChatSession(sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
