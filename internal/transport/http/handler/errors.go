package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nebula-chat/internal/app"
	"nebula-chat/internal/capture"
	"nebula-chat/internal/transport/http/response"
)

// writeError maps service and capture errors onto the API envelope.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrMessageEmpty):
		response.Error(c, http.StatusBadRequest, response.CodeMessageEmpty, app.ErrMessageEmpty.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, app.ErrSessionNotFound.Error())
	case errors.Is(err, app.ErrServiceClosed):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, app.ErrServiceClosed.Error())
	case errors.Is(err, capture.ErrMicrophoneDenied):
		response.Error(c, http.StatusForbidden, response.CodeMicrophoneDenied, "Microphone access was denied.")
	case errors.Is(err, capture.ErrMicrophoneUnsupported):
		response.Error(c, http.StatusNotImplemented, response.CodeMicrophoneUnsupported, "Voice input not supported in this environment.")
	case errors.Is(err, capture.ErrAlreadyRecording):
		response.Error(c, http.StatusConflict, response.CodeAlreadyRecording, capture.ErrAlreadyRecording.Error())
	case errors.Is(err, capture.ErrNotRecording):
		response.Error(c, http.StatusBadRequest, response.CodeNotRecording, capture.ErrNotRecording.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
