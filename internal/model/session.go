package model

const DefaultSessionTitle = "New chat"

// Session is one chat thread. UpdatedAt is epoch milliseconds, the format
// the browser client has always stored.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Messages  []Message `json:"messages" yaml:"messages"`
	UpdatedAt int64     `json:"updatedAt" yaml:"updated_at"`
}

// Clone returns a copy whose transcript does not alias s.
func (s Session) Clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
