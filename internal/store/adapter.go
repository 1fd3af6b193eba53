// Package store persists the session collection and the memory preference
// as JSON strings in a key-value backend. Persistence is best effort: read
// problems fall back to defaults and write problems are logged and dropped.
package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"nebula-chat/internal/model"
)

const (
	DefaultSessionsKey = "nebula_chats"
	DefaultMemoryKey   = "nebula_memory"
)

type Keys struct {
	Sessions string
	Memory   string
}

func DefaultKeys() Keys {
	return Keys{Sessions: DefaultSessionsKey, Memory: DefaultMemoryKey}
}

type Adapter struct {
	kv     KeyValue
	keys   Keys
	logger *slog.Logger
}

func NewAdapter(kv KeyValue, keys Keys, logger *slog.Logger) *Adapter {
	if keys.Sessions == "" {
		keys.Sessions = DefaultSessionsKey
	}
	if keys.Memory == "" {
		keys.Memory = DefaultMemoryKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{kv: kv, keys: keys, logger: logger}
}

// Load returns the saved sessions. ok is false when nothing was saved or the
// stored value does not parse.
func (a *Adapter) Load(ctx context.Context) ([]model.Session, bool) {
	raw, found, err := a.kv.Get(ctx, a.keys.Sessions)
	if err != nil {
		a.logger.Warn("load sessions failed", "key", a.keys.Sessions, "error", err)
		return nil, false
	}
	if !found || raw == "" {
		return nil, false
	}

	var sessions []model.Session
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		a.logger.Warn("stored sessions are not valid json", "key", a.keys.Sessions, "error", err)
		return nil, false
	}
	if sessions == nil {
		return nil, false
	}
	return sessions, true
}

func (a *Adapter) Save(ctx context.Context, sessions []model.Session) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	payload, err := json.Marshal(sessions)
	if err != nil {
		a.logger.Warn("marshal sessions failed", "error", err)
		return
	}
	if err := a.kv.Set(ctx, a.keys.Sessions, string(payload)); err != nil {
		a.logger.Warn("save sessions failed", "key", a.keys.Sessions, "error", err)
	}
}

// LoadPreference returns the memory flag, true when unset or unreadable.
func (a *Adapter) LoadPreference(ctx context.Context) bool {
	raw, found, err := a.kv.Get(ctx, a.keys.Memory)
	if err != nil {
		a.logger.Warn("load memory preference failed", "key", a.keys.Memory, "error", err)
		return true
	}
	if !found || raw == "" {
		return true
	}
	var enabled bool
	if err := json.Unmarshal([]byte(raw), &enabled); err != nil {
		a.logger.Warn("stored memory preference is not a boolean", "key", a.keys.Memory, "error", err)
		return true
	}
	return enabled
}

func (a *Adapter) SavePreference(ctx context.Context, enabled bool) {
	payload, _ := json.Marshal(enabled)
	if err := a.kv.Set(ctx, a.keys.Memory, string(payload)); err != nil {
		a.logger.Warn("save memory preference failed", "key", a.keys.Memory, "error", err)
	}
}
