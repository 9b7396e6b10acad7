package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaanipro/backend/internal/model"
	"github.com/vaanipro/backend/internal/service"
)

type AIHandler struct {
	svc *service.AIService
}

func NewAIHandler(svc *service.AIService) *AIHandler {
	return &AIHandler{svc: svc}
}

// GenerateTitle godoc
// @Summary Generate a short chat title
// @Tags ai
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body model.AIRequest true "Conversation"
// @Success 200 {object} model.TitleResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/ai/generate-title [post]
func (h *AIHandler) GenerateTitle(c *gin.Context) {
	var req model.AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	title, err := h.svc.GenerateTitle(c.Request.Context(), req.Messages)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TitleResponse{Success: true, Title: title})
}

// GenerateSummary godoc
// @Summary Summarize a conversation in 2-3 sentences
// @Tags ai
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body model.AIRequest true "Conversation"
// @Success 200 {object} model.SummaryResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /api/ai/generate-summary [post]
func (h *AIHandler) GenerateSummary(c *gin.Context) {
	var req model.AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	summary, err := h.svc.GenerateSummary(c.Request.Context(), req.Messages)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SummaryResponse{Success: true, Summary: summary})
}
