package ai

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula-chat/internal/model"
)

func TestGenerateResponse(t *testing.T) {
	docA := model.UploadedDocument{Name: "a.pdf", SizeBytes: 10}
	docB := model.UploadedDocument{Name: "b.txt", SizeBytes: 20}

	tests := []struct {
		name        string
		prompt      string
		memory      bool
		docs        []model.UploadedDocument
		contains    []string
		notContains []string
	}{
		{
			name:        "memory on",
			prompt:      "hello",
			memory:      true,
			contains:    []string{"hello", "Memory is ON"},
			notContains: []string{"Memory is OFF", "uploaded document"},
		},
		{
			name:        "memory off",
			prompt:      "hello",
			memory:      false,
			contains:    []string{"hello", "Memory is OFF"},
			notContains: []string{"Memory is ON"},
		},
		{
			name:     "two documents",
			prompt:   "x",
			memory:   true,
			docs:     []model.UploadedDocument{docA, docB},
			contains: []string{"Using 2 uploaded documents as context."},
		},
		{
			name:        "one document singular",
			prompt:      "x",
			memory:      true,
			docs:        []model.UploadedDocument{docA},
			contains:    []string{"Using 1 uploaded document as context."},
			notContains: []string{"documents"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateResponse(tt.prompt, tt.memory, tt.docs)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestGenerateResponseExactTemplate(t *testing.T) {
	got := GenerateResponse("hi", false, nil)
	want := "Echoing your prompt:\n\n“hi”\n\nMemory is OFF — responses won't be remembered."
	assert.Equal(t, want, got)
}

func TestGenerateResponseDeterministic(t *testing.T) {
	docs := []model.UploadedDocument{{Name: "a"}}
	assert.Equal(t, GenerateResponse("p", true, docs), GenerateResponse("p", true, docs))
}

func TestThinkingPlaceholder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		got := ThinkingPlaceholder(rng)
		require.True(t, strings.HasPrefix(got, "Thinking"))
		dots := strings.Count(got, ".")
		assert.GreaterOrEqual(t, dots, 1)
		assert.LessOrEqual(t, dots, 3)
	}
	assert.Equal(t, "Thinking.", ThinkingPlaceholder(nil))
}

func TestEchoResponder(t *testing.T) {
	r := NewEchoResponder()

	got, err := r.Respond(context.Background(), Request{Prompt: "ping", MemoryEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, GenerateResponse("ping", true, nil), got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Respond(ctx, Request{Prompt: "ping"})
	assert.ErrorIs(t, err, context.Canceled)
}
