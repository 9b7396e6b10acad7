package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AgentStreamer forwards a request body to the agent service.
type AgentStreamer interface {
	Stream(ctx context.Context, userID, contentType string, body io.Reader) (*http.Response, error)
}

type AgentHandler struct {
	agent AgentStreamer
	log   logrus.FieldLogger
}

func NewAgentHandler(agent AgentStreamer, log logrus.FieldLogger) *AgentHandler {
	return &AgentHandler{agent: agent, log: log.WithField("component", "agent_handler")}
}

// Stream godoc
// @Summary Proxy a streaming search to the agent
// @Description The upstream status, content type and body are relayed as they arrive.
// @Tags agent
// @Accept json
// @Produce plain
// @Security CookieAuth
// @Success 200 {string} string "stream"
// @Failure 503 {object} model.ErrorResponse
// @Router /api/agent/stream [post]
func (h *AgentHandler) Stream(c *gin.Context) {
	resp, err := h.agent.Stream(c.Request.Context(), userID(c), c.ContentType(), c.Request.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(resp.StatusCode)

	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := c.Writer.Write(buf[:n]); err != nil {
				// Client went away.
				return
			}
			c.Writer.Flush()
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) && !errors.Is(readErr, context.Canceled) {
				h.log.WithError(readErr).Warn("agent stream interrupted")
			}
			return
		}
	}
}
