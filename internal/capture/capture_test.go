package capture

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula-chat/internal/model"
)

func TestAttachmentsAppendWithoutDedup(t *testing.T) {
	a := NewAttachments()
	doc := model.UploadedDocument{Name: "notes.md", SizeBytes: 12}

	a.Add(doc)
	a.Add(doc, model.UploadedDocument{Name: "big.bin", SizeBytes: 1 << 40})

	require.Equal(t, 3, a.Count())
	list := a.List()
	assert.Equal(t, doc, list[0])
	assert.Equal(t, doc, list[1])

	list[0].Name = "changed"
	assert.Equal(t, "notes.md", a.List()[0].Name)
}

func TestRecorderLifecycle(t *testing.T) {
	r := NewRecorder(StaticMicrophone{Supported: true, Allowed: true}, "")
	require.Equal(t, StateIdle, r.State())

	require.NoError(t, r.Start(context.Background()))
	assert.True(t, r.Recording())
	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyRecording)

	r.Write(bytes.Repeat([]byte{1}, 1000))
	r.Write(nil)
	r.Write(bytes.Repeat([]byte{2}, 2072))

	blob, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, int64(3072), blob.Size)
	assert.Equal(t, DefaultAudioMIMEType, blob.MIMEType)
	assert.Equal(t, StateIdle, r.State())

	_, err = r.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderDiscardsPreviousTake(t *testing.T) {
	r := NewRecorder(StaticMicrophone{Supported: true, Allowed: true}, "audio/ogg")
	require.NoError(t, r.Start(context.Background()))
	r.Write([]byte("first take"))
	_, err := r.Stop()
	require.NoError(t, err)

	r.Write([]byte("ignored while idle"))
	require.NoError(t, r.Start(context.Background()))
	blob, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, int64(0), blob.Size)
	assert.Equal(t, "audio/ogg", blob.MIMEType)
}

func TestRecorderRefusals(t *testing.T) {
	tests := []struct {
		name string
		mic  Microphone
		want error
	}{
		{"denied", StaticMicrophone{Supported: true, Allowed: false}, ErrMicrophoneDenied},
		{"unsupported", StaticMicrophone{Supported: false, Allowed: true}, ErrMicrophoneUnsupported},
		{"no microphone", nil, ErrMicrophoneUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecorder(tt.mic, "")
			err := r.Start(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, StateIdle, r.State())
		})
	}
}

func TestVoiceAcknowledgement(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "🎤 Voice note captured (0 KB). Transcription coming soon..."},
		{511, "🎤 Voice note captured (0 KB). Transcription coming soon..."},
		{512, "🎤 Voice note captured (1 KB). Transcription coming soon..."},
		{3072, "🎤 Voice note captured (3 KB). Transcription coming soon..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VoiceAcknowledgement(tt.size))
	}
}
