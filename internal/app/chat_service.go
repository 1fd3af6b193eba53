package app

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nebula-chat/internal/ai"
	"nebula-chat/internal/capture"
	"nebula-chat/internal/model"
	"nebula-chat/internal/session"
)

const (
	defaultResponseDelay = 600 * time.Millisecond
	persistTimeout       = 3 * time.Second
	failedResponseText   = "The assistant could not answer this time."
)

// Store is the durable side of the service: sessions and the memory flag.
type Store interface {
	Load(ctx context.Context) ([]model.Session, bool)
	Save(ctx context.Context, sessions []model.Session)
	LoadPreference(ctx context.Context) bool
	SavePreference(ctx context.Context, enabled bool)
}

type Options struct {
	// ResponseDelay of zero means 600ms; negative resolves immediately.
	ResponseDelay  time.Duration
	TitleMaxChars  int
	Scheduler      Scheduler
	Rand           *rand.Rand
	Logger         *slog.Logger
	SessionOptions []session.Option
}

type SendInput struct {
	// SessionID defaults to the selected session.
	SessionID string
	Content   string
}

type SendResult struct {
	SessionID   string        `json:"session_id"`
	UserMessage model.Message `json:"user_message"`
	Pending     model.Message `json:"pending_message"`
}

type Snapshot struct {
	Sessions      []model.Session `json:"sessions"`
	SelectedID    string          `json:"selected_id"`
	MemoryEnabled bool            `json:"memory_enabled"`
}

type VoiceResult struct {
	Blob    capture.Blob   `json:"blob"`
	Message *model.Message `json:"message,omitempty"`
}

type ToggleResult struct {
	Recording bool         `json:"recording"`
	Voice     *VoiceResult `json:"voice,omitempty"`
}

// ChatService owns all chat state. Every method takes one lock and runs to
// completion, so callers observe operations one at a time.
type ChatService struct {
	mu sync.Mutex

	sessions      *session.Collection
	memoryEnabled bool
	attachments   *capture.Attachments
	recorder      *capture.Recorder
	voiceSession  string

	store     Store
	responder ai.Responder
	scheduler Scheduler
	delay     time.Duration
	rng       *rand.Rand
	logger    *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	pending map[string]Timer
	wg      sync.WaitGroup
	closed  bool
}

// NewChatService restores sessions and the memory flag from store, falling
// back to one fresh session when nothing usable was saved.
func NewChatService(
	ctx context.Context,
	store Store,
	responder ai.Responder,
	recorder *capture.Recorder,
	opts Options,
) *ChatService {
	if opts.ResponseDelay < 0 {
		opts.ResponseDelay = 0
	} else if opts.ResponseDelay == 0 {
		opts.ResponseDelay = defaultResponseDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if responder == nil {
		responder = ai.NewEchoResponder()
	}
	if recorder == nil {
		recorder = capture.NewRecorder(nil, "")
	}

	sessionOpts := append([]session.Option{session.WithTitleLimit(opts.TitleMaxChars)}, opts.SessionOptions...)
	saved, ok := store.Load(ctx)
	if !ok {
		opts.Logger.Info("no saved sessions, starting fresh")
	}
	collection := session.FromSessions(saved, sessionOpts...)

	baseCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &ChatService{
		sessions:      collection,
		memoryEnabled: store.LoadPreference(ctx),
		attachments:   capture.NewAttachments(),
		recorder:      recorder,
		store:         store,
		responder:     responder,
		scheduler:     opts.Scheduler,
		delay:         opts.ResponseDelay,
		rng:           opts.Rand,
		logger:        opts.Logger.With("component", "chat_service"),
		ctx:           baseCtx,
		cancel:        cancel,
		pending:       make(map[string]Timer),
	}
	if !ok {
		s.persistSessions(ctx)
	}
	return s
}

func (s *ChatService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatService) snapshotLocked() Snapshot {
	return Snapshot{
		Sessions:      s.sessions.Sessions(),
		SelectedID:    s.sessions.SelectedID(),
		MemoryEnabled: s.memoryEnabled,
	}
}

func (s *ChatService) Current() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Current()
}

func (s *ChatService) Session(id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions.Get(id)
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *ChatService) CreateSession(ctx context.Context) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := s.sessions.CreateSession()
	s.persistSessions(ctx)
	s.logger.Debug("session created", "session_id", created.ID)
	return created
}

// SelectSession leaves the selection unchanged for unknown ids.
func (s *ChatService) SelectSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessions.SelectSession(id) {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session. Pending responses for it still fire and
// find nothing to update.
func (s *ChatService) DeleteSession(ctx context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.sessions.DeleteSession(id) {
		return Snapshot{}, ErrSessionNotFound
	}
	s.persistSessions(ctx)
	s.logger.Debug("session deleted", "session_id", id, "selected_id", s.sessions.SelectedID())
	return s.snapshotLocked(), nil
}

// Send appends the user message and a pending assistant message, then
// resolves the pending message in place once the response delay elapses.
func (s *ChatService) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrServiceClosed
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = s.sessions.SelectedID()
	}
	userMsg, ok := s.sessions.AppendMessage(sessionID, model.RoleUser, content)
	if !ok {
		return nil, ErrSessionNotFound
	}
	pending, _ := s.sessions.AppendMessage(sessionID, model.RoleAssistant, ai.ThinkingPlaceholder(s.rng))
	s.persistSessions(ctx)

	req := ai.Request{
		Prompt:        content,
		MemoryEnabled: s.memoryEnabled,
		Documents:     s.attachments.List(),
	}
	s.scheduleLocked(sessionID, pending.ID, req)

	return &SendResult{SessionID: sessionID, UserMessage: userMsg, Pending: pending}, nil
}

func (s *ChatService) scheduleLocked(sessionID, messageID string, req ai.Request) {
	s.wg.Add(1)
	s.pending[messageID] = s.scheduler.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.resolve(sessionID, messageID, req)
	})
}

func (s *ChatService) resolve(sessionID, messageID string, req ai.Request) {
	content, err := s.responder.Respond(s.ctx, req)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.logger.Warn("generate response failed", "session_id", sessionID, "error", err)
		content = failedResponseText
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, messageID)
	if !s.sessions.ReplaceMessage(sessionID, messageID, content) {
		s.logger.Debug("pending response target is gone", "session_id", sessionID, "message_id", messageID)
		return
	}
	s.persistSessions(s.ctx)
}

// PendingCount is the number of responses still waiting on their timer.
func (s *ChatService) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ChatService) Memory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryEnabled
}

func (s *ChatService) SetMemory(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoryEnabled = enabled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	s.store.SavePreference(ctx, enabled)
}

// AddDocuments records descriptors and returns everything uploaded so far.
func (s *ChatService) AddDocuments(docs ...model.UploadedDocument) []model.UploadedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments.Add(docs...)
	return s.attachments.List()
}

func (s *ChatService) Documents() []model.UploadedDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachments.List()
}

func (s *ChatService) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder.Recording()
}

// StartRecording asks for the microphone. The voice note will land in the
// session selected right now.
func (s *ChatService) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startRecordingLocked(ctx)
}

func (s *ChatService) startRecordingLocked(ctx context.Context) error {
	if err := s.recorder.Start(ctx); err != nil {
		return err
	}
	s.voiceSession = s.sessions.SelectedID()
	s.logger.Debug("recording started", "session_id", s.voiceSession)
	return nil
}

func (s *ChatService) WriteAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recorder.Recording() {
		return capture.ErrNotRecording
	}
	s.recorder.Write(chunk)
	return nil
}

// StopRecording posts the acknowledgement message. If the originating session
// was deleted meanwhile, the note is dropped and Message is nil.
func (s *ChatService) StopRecording(ctx context.Context) (*VoiceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRecordingLocked(ctx)
}

func (s *ChatService) stopRecordingLocked(ctx context.Context) (*VoiceResult, error) {
	blob, err := s.recorder.Stop()
	if err != nil {
		return nil, err
	}
	result := &VoiceResult{Blob: blob}
	target := s.voiceSession
	s.voiceSession = ""

	msg, ok := s.sessions.AppendMessage(target, model.RoleUser, capture.VoiceAcknowledgement(blob.Size))
	if !ok {
		s.logger.Debug("voice note session is gone", "session_id", target)
		return result, nil
	}
	result.Message = &msg
	s.persistSessions(ctx)
	return result, nil
}

func (s *ChatService) ToggleRecording(ctx context.Context) (*ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder.Recording() {
		voice, err := s.stopRecordingLocked(ctx)
		if err != nil {
			return nil, err
		}
		return &ToggleResult{Recording: false, Voice: voice}, nil
	}
	if err := s.startRecordingLocked(ctx); err != nil {
		return nil, err
	}
	return &ToggleResult{Recording: true}, nil
}

// Close stops timers that have not fired and waits for running resolutions.
func (s *ChatService) Close() {
	s.mu.Lock()
	s.closed = true
	for id, timer := range s.pending {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *ChatService) persistSessions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	s.store.Save(ctx, s.sessions.Sessions())
}
