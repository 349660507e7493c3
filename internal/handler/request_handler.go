package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beckon/internal/apperr"
	"beckon/internal/domain"
	"beckon/internal/middleware"
	"beckon/internal/service"
)

// RequestHandler exposes the lifecycle commands that act on a request.
type RequestHandler struct {
	lifecycle *service.Lifecycle
}

func NewRequestHandler(lifecycle *service.Lifecycle) *RequestHandler {
	return &RequestHandler{lifecycle: lifecycle}
}

type routeRequestBody struct {
	RequestID string `json:"requestId" binding:"required"`
}

// Route fans a broadcasting request out to matching businesses.
func (h *RequestHandler) Route(c *gin.Context) {
	var body routeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid requestId"))
		return
	}
	result, err := h.lifecycle.RouteRequest(c.Request.Context(), middleware.GetUID(c), body.RequestID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type respondOfferBody struct {
	RequestID  string   `json:"requestId" binding:"required"`
	BusinessID string   `json:"businessId" binding:"required"`
	Message    string   `json:"message" binding:"required"`
	Price      *float64 `json:"price"`
	ETA        string   `json:"eta"`
	PhotoURLs  []string `json:"photoUrls"`
}

// RespondOffer records a business's offer against a matched request.
func (h *RequestHandler) RespondOffer(c *gin.Context) {
	var body respondOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid offer payload"))
		return
	}
	offerID, err := h.lifecycle.RespondOffer(c.Request.Context(), middleware.GetUID(c), service.RespondOfferInput{
		RequestID:  body.RequestID,
		BusinessID: body.BusinessID,
		Message:    body.Message,
		Price:      body.Price,
		ETA:        body.ETA,
		PhotoURLs:  body.PhotoURLs,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offerId": offerID})
}

type acceptOfferBody struct {
	RequestID string `json:"requestId" binding:"required"`
	OfferID   string `json:"offerId" binding:"required"`
}

// AcceptOffer accepts one offer and opens the chat.
func (h *RequestHandler) AcceptOffer(c *gin.Context) {
	var body acceptOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid accept payload"))
		return
	}
	result, err := h.lifecycle.AcceptOffer(c.Request.Context(), middleware.GetUID(c), body.RequestID, body.OfferID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cancel cancels a broadcasting or accepted request.
func (h *RequestHandler) Cancel(c *gin.Context) {
	var body routeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid requestId"))
		return
	}
	if err := h.lifecycle.CancelRequest(c.Request.Context(), middleware.GetUID(c), body.RequestID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.StatusCancelled)})
}

type outcomeBody struct {
	RequestID  string `json:"requestId" binding:"required"`
	BusinessID string `json:"businessId" binding:"required"`
}

// MarkCompleted closes the engagement as completed.
func (h *RequestHandler) MarkCompleted(c *gin.Context) {
	var body outcomeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid outcome payload"))
		return
	}
	if err := h.lifecycle.MarkCompleted(c.Request.Context(), middleware.GetUID(c), body.RequestID, body.BusinessID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.StatusCompleted)})
}

// MarkNoShow reports the consumer as a no-show.
func (h *RequestHandler) MarkNoShow(c *gin.Context) {
	var body outcomeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, apperr.Validation("invalid outcome payload"))
		return
	}
	if err := h.lifecycle.MarkNoShow(c.Request.Context(), middleware.GetUID(c), body.RequestID, body.BusinessID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.StatusNoShow)})
}
