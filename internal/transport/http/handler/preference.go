package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebula-chat/internal/app"
	"nebula-chat/internal/transport/http/response"
)

type PreferenceHandler struct {
	chatService *app.ChatService
}

type SetMemoryRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func NewPreferenceHandler(chatService *app.ChatService) *PreferenceHandler {
	return &PreferenceHandler{chatService: chatService}
}

func (h *PreferenceHandler) GetMemory(c *gin.Context) {
	response.OK(c, gin.H{"enabled": h.chatService.Memory()})
}

func (h *PreferenceHandler) SetMemory(c *gin.Context) {
	var req SetMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.chatService.SetMemory(c.Request.Context(), *req.Enabled)
	response.OK(c, gin.H{"enabled": *req.Enabled})
}
