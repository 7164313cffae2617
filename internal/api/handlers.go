package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crm-chatbot-api/server/internal/agent/graph"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

type Handlers struct {
	runner   graph.Runner
	sessions model.SessionRepository
}

type AskRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type SessionResponse struct {
	SessionID string        `json:"session_id"`
	History   model.History `json:"history"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ask runs one routing pass. A blank question never reaches the graph.
func (h *Handlers) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(c, errx.ErrEmptyQuestion)
		return
	}

	out, err := h.runner.Invoke(c.Request.Context(), model.QueryInput{
		SessionID: req.SessionID,
		Question:  req.Question,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetSession(c *gin.Context) {
	id := c.Param("id")
	history, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(history) == 0 {
		writeError(c, errx.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{SessionID: id, History: history})
}

func (h *Handlers) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	n, err := h.sessions.Count(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if n == 0 {
		writeError(c, errx.ErrSessionNotFound)
		return
	}
	if err := h.sessions.Clear(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "session_id": id})
}

// writeError answers with the safe message of err; details only go to the log.
func writeError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errx.MessageOf(err)})
}
