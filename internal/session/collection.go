// Package session holds the in-memory chat collection and the rules that keep
// it consistent: at least one session, a selected id that always resolves, and
// append-only transcripts.
package session

import (
	"time"

	"github.com/google/uuid"

	"nebula-chat/internal/model"
)

const defaultTitleLimit = 30

type Option func(*Collection)

// WithIDGenerator overrides uuid-based ids for sessions and messages.
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) {
		if fn != nil {
			c.newID = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(c *Collection) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithTitleLimit sets how many characters of the first user message become
// the session title.
func WithTitleLimit(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.titleLimit = n
		}
	}
}

// Collection is not safe for concurrent use; callers serialize access.
type Collection struct {
	sessions   []model.Session
	selectedID string

	newID      func() string
	now        func() time.Time
	titleLimit int
}

// New returns a collection holding one fresh default session.
func New(opts ...Option) *Collection {
	return FromSessions(nil, opts...)
}

// FromSessions rebuilds a collection from persisted sessions. Duplicate ids
// keep their first occurrence; an empty list gets a fresh default session.
// The first session is selected.
func FromSessions(sessions []model.Session, opts ...Option) *Collection {
	c := &Collection{
		newID:      uuid.NewString,
		now:        time.Now,
		titleLimit: defaultTitleLimit,
	}
	for _, opt := range opts {
		opt(c)
	}

	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if s.ID == "" {
			continue
		}
		if _, dup := seen[s.ID]; dup {
			continue
		}
		seen[s.ID] = struct{}{}
		c.sessions = append(c.sessions, s.Clone())
	}
	if len(c.sessions) == 0 {
		c.sessions = []model.Session{c.newSession()}
	}
	c.selectedID = c.sessions[0].ID
	return c
}

func (c *Collection) newSession() model.Session {
	return model.Session{
		ID:        c.newID(),
		Title:     model.DefaultSessionTitle,
		Messages:  []model.Message{},
		UpdatedAt: c.now().UnixMilli(),
	}
}

// CreateSession inserts a new empty session at the front and selects it.
func (c *Collection) CreateSession() model.Session {
	s := c.newSession()
	c.sessions = append([]model.Session{s}, c.sessions...)
	c.selectedID = s.ID
	return s.Clone()
}

// SelectSession reports whether id exists; unknown ids leave the selection alone.
func (c *Collection) SelectSession(id string) bool {
	if c.indexOf(id) < 0 {
		return false
	}
	c.selectedID = id
	return true
}

// DeleteSession removes id. Deleting the selected session selects the new
// first element, and deleting the last one synthesizes a replacement.
func (c *Collection) DeleteSession(id string) bool {
	idx := c.indexOf(id)
	if idx < 0 {
		return false
	}
	c.sessions = append(c.sessions[:idx:idx], c.sessions[idx+1:]...)
	if len(c.sessions) == 0 {
		c.sessions = []model.Session{c.newSession()}
		c.selectedID = c.sessions[0].ID
		return true
	}
	if c.selectedID == id {
		c.selectedID = c.sessions[0].ID
	}
	return true
}

// AppendMessage adds a message to the end of a transcript. The first user
// message also names the session.
func (c *Collection) AppendMessage(sessionID string, role model.Role, content string) (model.Message, bool) {
	idx := c.indexOf(sessionID)
	if idx < 0 {
		return model.Message{}, false
	}
	s := &c.sessions[idx]
	msg := model.Message{ID: c.newID(), Role: role, Content: content}
	if len(s.Messages) == 0 && role == model.RoleUser {
		s.Title = truncate(content, c.titleLimit)
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = c.now().UnixMilli()
	return msg, true
}

// ReplaceLastAssistantMessage overwrites the most recent assistant message.
// It reports false when the session or an assistant message is missing.
func (c *Collection) ReplaceLastAssistantMessage(sessionID, content string) bool {
	idx := c.indexOf(sessionID)
	if idx < 0 {
		return false
	}
	s := &c.sessions[idx]
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == model.RoleAssistant {
			s.Messages[i].Content = content
			s.UpdatedAt = c.now().UnixMilli()
			return true
		}
	}
	return false
}

// ReplaceMessage overwrites the content of one message addressed by id.
func (c *Collection) ReplaceMessage(sessionID, messageID, content string) bool {
	idx := c.indexOf(sessionID)
	if idx < 0 {
		return false
	}
	s := &c.sessions[idx]
	for i := range s.Messages {
		if s.Messages[i].ID == messageID {
			s.Messages[i].Content = content
			s.UpdatedAt = c.now().UnixMilli()
			return true
		}
	}
	return false
}

func (c *Collection) SelectedID() string {
	return c.selectedID
}

// Current returns a copy of the selected session.
func (c *Collection) Current() model.Session {
	if idx := c.indexOf(c.selectedID); idx >= 0 {
		return c.sessions[idx].Clone()
	}
	return c.sessions[0].Clone()
}

func (c *Collection) Get(id string) (model.Session, bool) {
	idx := c.indexOf(id)
	if idx < 0 {
		return model.Session{}, false
	}
	return c.sessions[idx].Clone(), true
}

// Sessions returns copies of all sessions in display order.
func (c *Collection) Sessions() []model.Session {
	out := make([]model.Session, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = s.Clone()
	}
	return out
}

func (c *Collection) Len() int {
	return len(c.sessions)
}

func (c *Collection) indexOf(id string) int {
	for i := range c.sessions {
		if c.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
