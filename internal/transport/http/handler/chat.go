package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebula-chat/internal/app"
	"nebula-chat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	response.OK(c, h.chatService.Snapshot())
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	response.OK(c, h.chatService.CreateSession(c.Request.Context()))
}

func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.chatService.Session(c.Param("id"))
	if err != nil {
		writeError(c, err, "get session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) GetCurrentSession(c *gin.Context) {
	response.OK(c, h.chatService.Current())
}

func (h *ChatHandler) SelectSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.chatService.SelectSession(id); err != nil {
		writeError(c, err, "select session failed")
		return
	}
	response.OK(c, gin.H{"selected_id": id})
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	snapshot, err := h.chatService.DeleteSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "delete session failed")
		return
	}
	response.OK(c, snapshot)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Send(c.Request.Context(), app.SendInput{
		SessionID: req.SessionID,
		Content:   req.Content,
	})
	if err != nil {
		writeError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}
