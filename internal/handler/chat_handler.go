package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beckon/internal/apperr"
	"beckon/internal/middleware"
	"beckon/internal/service"
)

type ChatHandler struct {
	lifecycle *service.Lifecycle
}

func NewChatHandler(lifecycle *service.Lifecycle) *ChatHandler {
	return &ChatHandler{lifecycle: lifecycle}
}

type sendMessageBody struct {
	ChatID string `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

// SendMessage appends a chat message; the sender role is derived from the
// authenticated caller.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid message payload"))
		return
	}
	messageID, err := h.lifecycle.SendChatMessage(c.Request.Context(), middleware.GetUID(c), body.ChatID, body.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messageId": messageID})
}
