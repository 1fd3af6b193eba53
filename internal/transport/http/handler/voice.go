package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nebula-chat/internal/app"
	"nebula-chat/internal/transport/http/response"
)

const maxAudioChunkSize = 8 << 20

type VoiceHandler struct {
	chatService *app.ChatService
}

func NewVoiceHandler(chatService *app.ChatService) *VoiceHandler {
	return &VoiceHandler{chatService: chatService}
}

func (h *VoiceHandler) Status(c *gin.Context) {
	response.OK(c, gin.H{"recording": h.chatService.Recording()})
}

func (h *VoiceHandler) Start(c *gin.Context) {
	if err := h.chatService.StartRecording(c.Request.Context()); err != nil {
		writeError(c, err, "start recording failed")
		return
	}
	response.OK(c, gin.H{"recording": true})
}

// Chunk buffers the raw request body as one audio chunk.
func (h *VoiceHandler) Chunk(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioChunkSize)
	chunk, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid audio chunk")
		return
	}
	if err := h.chatService.WriteAudio(chunk); err != nil {
		writeError(c, err, "write audio failed")
		return
	}
	response.OK(c, gin.H{"buffered_bytes": len(chunk)})
}

func (h *VoiceHandler) Stop(c *gin.Context) {
	result, err := h.chatService.StopRecording(c.Request.Context())
	if err != nil {
		writeError(c, err, "stop recording failed")
		return
	}
	response.OK(c, result)
}

func (h *VoiceHandler) Toggle(c *gin.Context) {
	result, err := h.chatService.ToggleRecording(c.Request.Context())
	if err != nil {
		writeError(c, err, "toggle recording failed")
		return
	}
	response.OK(c, result)
}
