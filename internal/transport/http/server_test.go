package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula-chat/internal/app"
	"nebula-chat/internal/bootstrap"
	"nebula-chat/internal/capture"
	"nebula-chat/internal/config"
	"nebula-chat/internal/model"
	httptransport "nebula-chat/internal/transport/http"
	"nebula-chat/internal/transport/http/response"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	app    *bootstrap.App
	router *gin.Engine
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.App.GinMode = gin.TestMode
	cfg.Chat.ResponseDelayMS = -1
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := bootstrap.NewWithConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &testServer{t: t, app: a, router: httptransport.NewRouter(a)}
}

func (s *testServer) do(method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(path, "/api/") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *testServer) doJSON(method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(method, path, body, "application/json")
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthReportsConfiguredDependenciesOnly(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(http.MethodGet, "/healthz", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "memory", body["store"])
	assert.Empty(t, body["dependencies"])
}

func TestSendMessageResolvesPlaceholder(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.doJSON(http.MethodPost, "/api/v1/chat/messages", map[string]string{"content": "  hello  "})
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[app.SendResult](t, env)
	assert.Equal(t, "hello", result.UserMessage.Content)
	assert.Equal(t, model.RoleAssistant, result.Pending.Role)
	assert.True(t, strings.HasPrefix(result.Pending.Content, "Thinking"))

	path := "/api/v1/chat/sessions/" + result.SessionID
	assert.Eventually(t, func() bool {
		_, env := s.doJSON(http.MethodGet, path, nil)
		sess := decode[model.Session](t, env)
		return len(sess.Messages) == 2 &&
			strings.HasPrefix(sess.Messages[1].Content, "Echoing your prompt:")
	}, 2*time.Second, 10*time.Millisecond)

	_, env = s.doJSON(http.MethodGet, path, nil)
	sess := decode[model.Session](t, env)
	assert.Equal(t, "hello", sess.Title)
	assert.Equal(t, result.Pending.ID, sess.Messages[1].ID)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.doJSON(http.MethodPost, "/api/v1/chat/messages", map[string]string{"content": " \n\t"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeMessageEmpty, env.Code)

	w, env = s.do(http.MethodPost, "/api/v1/chat/messages", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	_, env = s.doJSON(http.MethodGet, "/api/v1/chat/sessions/current", nil)
	assert.Empty(t, decode[model.Session](t, env).Messages)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := s.doJSON(http.MethodGet, "/api/v1/chat/sessions", nil)
	initial := decode[app.Snapshot](t, env)
	require.Len(t, initial.Sessions, 1)
	assert.True(t, initial.MemoryEnabled)

	w, env := s.doJSON(http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[model.Session](t, env)
	assert.Equal(t, model.DefaultSessionTitle, created.Title)

	w, _ = s.doJSON(http.MethodPut, "/api/v1/chat/sessions/"+initial.SelectedID+"/select", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.doJSON(http.MethodDelete, "/api/v1/chat/sessions/"+initial.SelectedID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[app.Snapshot](t, env)
	require.Len(t, after.Sessions, 1)
	assert.Equal(t, created.ID, after.SelectedID)
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/chat/sessions/missing"},
		{http.MethodPut, "/api/v1/chat/sessions/missing/select"},
		{http.MethodDelete, "/api/v1/chat/sessions/missing"},
	} {
		w, env := s.doJSON(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Equal(t, response.CodeSessionNotFound, env.Code, tc.path)
	}

	w, env := s.doJSON(http.MethodPost, "/api/v1/chat/messages", map[string]string{"session_id": "missing", "content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeSessionNotFound, env.Code)
}

func TestMemoryPreference(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.doJSON(http.MethodPut, "/api/v1/preferences/memory", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"enabled": false}, decode[map[string]bool](t, env))

	_, env = s.doJSON(http.MethodGet, "/api/v1/preferences/memory", nil)
	assert.Equal(t, map[string]bool{"enabled": false}, decode[map[string]bool](t, env))

	w, env = s.doJSON(http.MethodPut, "/api/v1/preferences/memory", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)
}

func TestUploadDocumentsMultipart(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, size := range map[string]int{"a.pdf": 10, "b.txt": 3} {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), size))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	w, env := s.do(http.MethodPost, "/api/v1/documents", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode[[]model.UploadedDocument](t, env)
	require.Len(t, docs, 2)
	sizes := map[string]int64{}
	for _, d := range docs {
		sizes[d.Name] = d.SizeBytes
	}
	assert.Equal(t, map[string]int64{"a.pdf": 10, "b.txt": 3}, sizes)
}

func TestUploadDocumentsJSONAppendsWithoutDedupe(t *testing.T) {
	s := newTestServer(t, nil)
	payload := map[string]any{"documents": []model.UploadedDocument{{Name: "a.pdf", SizeBytes: 1}}}

	s.doJSON(http.MethodPost, "/api/v1/documents", payload)
	_, env := s.doJSON(http.MethodPost, "/api/v1/documents", payload)
	assert.Len(t, decode[[]model.UploadedDocument](t, env), 2)

	_, env = s.doJSON(http.MethodPost, "/api/v1/documents", map[string]any{"documents": []model.UploadedDocument{}})
	assert.Len(t, decode[[]model.UploadedDocument](t, env), 2)

	_, env = s.doJSON(http.MethodGet, "/api/v1/documents", nil)
	assert.Len(t, decode[[]model.UploadedDocument](t, env), 2)
}

func TestVoiceRecordingFlow(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.doJSON(http.MethodPost, "/api/v1/voice/start", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.doJSON(http.MethodPost, "/api/v1/voice/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeAlreadyRecording, env.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/voice/chunks", bytes.NewReader(make([]byte, 2048)), "application/octet-stream")
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.doJSON(http.MethodPost, "/api/v1/voice/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[app.VoiceResult](t, env)
	assert.Equal(t, capture.Blob{MIMEType: "audio/webm", Size: 2048}, result.Blob)
	require.NotNil(t, result.Message)
	assert.Equal(t, "🎤 Voice note captured (2 KB). Transcription coming soon...", result.Message.Content)

	w, env = s.doJSON(http.MethodPost, "/api/v1/voice/stop", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeNotRecording, env.Code)
}

func TestVoiceToggle(t *testing.T) {
	s := newTestServer(t, nil)

	_, env := s.doJSON(http.MethodPost, "/api/v1/voice/toggle", nil)
	assert.True(t, decode[app.ToggleResult](t, env).Recording)

	_, env = s.doJSON(http.MethodGet, "/api/v1/voice", nil)
	assert.Equal(t, map[string]bool{"recording": true}, decode[map[string]bool](t, env))

	_, env = s.doJSON(http.MethodPost, "/api/v1/voice/toggle", nil)
	toggled := decode[app.ToggleResult](t, env)
	assert.False(t, toggled.Recording)
	require.NotNil(t, toggled.Voice)
	assert.NotNil(t, toggled.Voice.Message)
}

func TestVoiceRefusals(t *testing.T) {
	tests := []struct {
		name       string
		voice      config.VoiceConfig
		wantStatus int
		wantCode   int
	}{
		{"unsupported", config.VoiceConfig{Supported: false}, http.StatusNotImplemented, response.CodeMicrophoneUnsupported},
		{"denied", config.VoiceConfig{Supported: true, Allowed: false}, http.StatusForbidden, response.CodeMicrophoneDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(cfg *config.Config) { cfg.Voice = tt.voice })

			w, env := s.doJSON(http.MethodPost, "/api/v1/voice/start", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, env.Code)

			_, env = s.doJSON(http.MethodGet, "/api/v1/voice", nil)
			assert.Equal(t, map[string]bool{"recording": false}, decode[map[string]bool](t, env))
		})
	}
}
