// Package speech turns recorded questions into text and reads answers aloud.
package speech

import (
	"context"
	"errors"
	"io"
)

var (
	ErrTranscriptionFailed = errors.New("TRANSCRIPTION_FAILED")
	ErrEmptyTranscript     = errors.New("EMPTY_TRANSCRIPT")
	ErrSpeakFailed         = errors.New("SPEAK_FAILED")
)

// Transcriber returns the text spoken in an audio stream.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, audio io.Reader) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	return f(ctx, audio)
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}
