package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaanipro/backend/internal/model"
	"github.com/vaanipro/backend/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// History godoc
// @Summary Chat history grouped by recency
// @Tags chat
// @Produce json
// @Security CookieAuth
// @Success 200 {object} model.ChatHistoryResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/chat/history/all [get]
func (h *ChatHandler) History(c *gin.Context) {
	categories, err := h.svc.History(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatHistoryResponse{Success: true, Categories: categories})
}

// Save godoc
// @Summary Save a chat
// @Description Temporary ids (temp_, new_ or empty) are replaced with a generated id.
// @Tags chat
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body model.SaveChatRequest true "Chat"
// @Success 200 {object} model.ChatResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/chat/save [post]
func (h *ChatHandler) Save(c *gin.Context) {
	var req model.SaveChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	chat, err := h.svc.Save(c.Request.Context(), userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Success: true, Chat: model.NewChatView(chat)})
}

// Update godoc
// @Summary Update a chat
// @Tags chat
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param chatId path string true "Chat ID"
// @Param request body model.UpdateChatRequest true "Chat"
// @Success 200 {object} model.ChatResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/chat/{chatId}/update [put]
func (h *ChatHandler) Update(c *gin.Context) {
	var req model.UpdateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	chat, err := h.svc.Update(c.Request.Context(), userID(c), c.Param("chatId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Success: true, Chat: model.NewChatView(chat)})
}

// Get godoc
// @Summary Get a chat
// @Tags chat
// @Produce json
// @Security CookieAuth
// @Param chatId path string true "Chat ID"
// @Success 200 {object} model.ChatResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/chat/{chatId} [get]
func (h *ChatHandler) Get(c *gin.Context) {
	chat, err := h.svc.Get(c.Request.Context(), userID(c), c.Param("chatId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.ChatResponse{Success: true, Chat: model.NewChatView(chat)})
}

// Delete godoc
// @Summary Delete a chat
// @Tags chat
// @Produce json
// @Security CookieAuth
// @Param chatId path string true "Chat ID"
// @Success 200 {object} model.SuccessResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/chat/{chatId} [delete]
func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), userID(c), c.Param("chatId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.SuccessResponse{Success: true, Message: "Chat deleted"})
}

// userID is only called behind AuthMiddleware.
func userID(c *gin.Context) string {
	if user := GetAuthUser(c); user != nil {
		return user.ID.Hex()
	}
	return ""
}
