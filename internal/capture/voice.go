package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
)

const DefaultAudioMIMEType = "audio/webm"

var (
	ErrMicrophoneDenied      = errors.New("microphone access was denied")
	ErrMicrophoneUnsupported = errors.New("voice input not supported")
	ErrAlreadyRecording      = errors.New("recording already in progress")
	ErrNotRecording          = errors.New("no recording in progress")
)

type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	default:
		return "idle"
	}
}

// Microphone grants or refuses capture. Implementations return
// ErrMicrophoneDenied or ErrMicrophoneUnsupported on refusal.
type Microphone interface {
	RequestAccess(ctx context.Context) error
}

// StaticMicrophone answers access requests from fixed settings.
type StaticMicrophone struct {
	Supported bool
	Allowed   bool
}

func (m StaticMicrophone) RequestAccess(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.Supported {
		return ErrMicrophoneUnsupported
	}
	if !m.Allowed {
		return ErrMicrophoneDenied
	}
	return nil
}

// Blob is what remains of a finished recording once its bytes are dropped.
type Blob struct {
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Recorder buffers audio chunks between Start and Stop. It is not safe for
// concurrent use.
type Recorder struct {
	mic      Microphone
	mimeType string
	state    State
	chunks   [][]byte
}

func NewRecorder(mic Microphone, mimeType string) *Recorder {
	if mimeType == "" {
		mimeType = DefaultAudioMIMEType
	}
	return &Recorder{mic: mic, mimeType: mimeType}
}

func (r *Recorder) State() State {
	return r.state
}

func (r *Recorder) Recording() bool {
	return r.state == StateRecording
}

// Start asks for microphone access and begins buffering on success. On any
// refusal the recorder stays idle.
func (r *Recorder) Start(ctx context.Context) error {
	if r.state == StateRecording {
		return ErrAlreadyRecording
	}
	if r.mic == nil {
		return ErrMicrophoneUnsupported
	}
	if err := r.mic.RequestAccess(ctx); err != nil {
		return fmt.Errorf("request microphone access failed: %w", err)
	}
	r.chunks = nil
	r.state = StateRecording
	return nil
}

// Write buffers one chunk. Empty chunks and writes while idle are dropped.
func (r *Recorder) Write(chunk []byte) {
	if r.state != StateRecording || len(chunk) == 0 {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.chunks = append(r.chunks, buf)
}

// Stop finalizes the buffered audio into a single blob, keeps only its size
// and returns to idle.
func (r *Recorder) Stop() (Blob, error) {
	if r.state != StateRecording {
		return Blob{}, ErrNotRecording
	}
	audio := bytes.Join(r.chunks, nil)
	blob := Blob{MIMEType: r.mimeType, Size: int64(len(audio))}
	r.chunks = nil
	r.state = StateIdle
	return blob, nil
}

// VoiceAcknowledgement is the user message posted for a captured note.
func VoiceAcknowledgement(size int64) string {
	kb := int64(math.Round(float64(size) / 1024))
	return fmt.Sprintf("🎤 Voice note captured (%d KB). Transcription coming soon...", kb)
}
