package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"nebula-chat/internal/model"
)

const (
	memoryOnLine  = "\n\nMemory is ON — I will remember key details in this session."
	memoryOffLine = "\n\nMemory is OFF — responses won't be remembered."
)

// Request carries what a backend may use to answer the latest prompt.
type Request struct {
	Prompt        string
	MemoryEnabled bool
	Documents     []model.UploadedDocument
}

// Responder produces the final assistant content for one turn.
type Responder interface {
	Respond(ctx context.Context, req Request) (string, error)
}

// EchoResponder answers locally without any model call.
type EchoResponder struct{}

func NewEchoResponder() *EchoResponder {
	return &EchoResponder{}
}

func (EchoResponder) Respond(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return GenerateResponse(req.Prompt, req.MemoryEnabled, req.Documents), nil
}

// GenerateResponse echoes prompt and reports the memory and document state.
func GenerateResponse(prompt string, memoryEnabled bool, docs []model.UploadedDocument) string {
	var b strings.Builder
	b.WriteString("Echoing your prompt:\n\n“")
	b.WriteString(prompt)
	b.WriteString("”")
	if memoryEnabled {
		b.WriteString(memoryOnLine)
	} else {
		b.WriteString(memoryOffLine)
	}
	if n := len(docs); n > 0 {
		plural := ""
		if n > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "\n\nUsing %d uploaded document%s as context.", n, plural)
	}
	return b.String()
}

// ThinkingPlaceholder is the pending assistant text: "Thinking" and one to three dots.
func ThinkingPlaceholder(rng *rand.Rand) string {
	dots := 1
	if rng != nil {
		dots += rng.Intn(3)
	}
	return "Thinking" + strings.Repeat(".", dots)
}
