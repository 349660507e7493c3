package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beckon/internal/apperr"
	"beckon/internal/middleware"
	"beckon/internal/service"
)

type TokenHandler struct {
	lifecycle *service.Lifecycle
}

func NewTokenHandler(lifecycle *service.Lifecycle) *TokenHandler {
	return &TokenHandler{lifecycle: lifecycle}
}

type registerTokenBody struct {
	Token      string `json:"token" binding:"required"`
	BusinessID string `json:"businessId"`
}

// Register unions a device push token into the caller's token set, and
// into their business's set when businessId is given.
func (h *TokenHandler) Register(c *gin.Context) {
	var body registerTokenBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid token payload"))
		return
	}
	if err := h.lifecycle.RegisterPushToken(c.Request.Context(), middleware.GetUID(c), body.Token, body.BusinessID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered": true})
}
