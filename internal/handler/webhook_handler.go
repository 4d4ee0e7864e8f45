package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/flow"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
)

// WebhookHandler translates the chat platform's update JSON into engine
// updates and writes the reply back in the response body. The engine itself
// stays transport-agnostic.
type WebhookHandler struct {
	engine *flow.Engine
	logger *zap.Logger
}

// NewWebhookHandler constructs a webhook handler.
func NewWebhookHandler(engine *flow.Engine, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{engine: engine, logger: logger}
}

// Receive handles POST /webhook.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var up flow.Update
	if err := c.ShouldBindJSON(&up); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	msg, err := h.engine.Handle(c.Request.Context(), up)
	if err != nil {
		h.logger.Error("engine failed to handle update",
			zap.Int64("platform_id", up.PlatformID), zap.Error(err))
		c.JSON(http.StatusOK, reply.Text("Something went wrong on our side. Please try again in a moment."))
		return
	}
	c.JSON(http.StatusOK, msg)
}
