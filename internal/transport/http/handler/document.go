package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nebula-chat/internal/app"
	"nebula-chat/internal/model"
	"nebula-chat/internal/transport/http/response"
)

const (
	documentsFormField = "files"
	maxMultipartMemory = 32 << 20
)

type DocumentHandler struct {
	chatService *app.ChatService
}

type AddDocumentsRequest struct {
	Documents []model.UploadedDocument `json:"documents"`
}

func NewDocumentHandler(chatService *app.ChatService) *DocumentHandler {
	return &DocumentHandler{chatService: chatService}
}

func (h *DocumentHandler) List(c *gin.Context) {
	response.OK(c, h.chatService.Documents())
}

// Upload accepts either multipart files under "files" or a JSON list of
// descriptors. Only names and sizes are kept; contents are never opened.
func (h *DocumentHandler) Upload(c *gin.Context) {
	var docs []model.UploadedDocument
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
			return
		}
		defer func() { _ = form.RemoveAll() }()
		for _, fh := range form.File[documentsFormField] {
			docs = append(docs, model.UploadedDocument{Name: fh.Filename, SizeBytes: fh.Size})
		}
	} else {
		var req AddDocumentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
		docs = req.Documents
	}

	if len(docs) == 0 {
		response.OK(c, h.chatService.Documents())
		return
	}
	response.OK(c, h.chatService.AddDocuments(docs...))
}
