package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o-richard/covidvisor/internal/speech"
)

func writeRecording(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// transcriptOf treats the recording bytes as the spoken text.
var transcriptOf = speech.TranscriberFunc(func(ctx context.Context, audio io.Reader) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", speech.ErrEmptyTranscript
	}
	return string(data), nil
})

func echoHandler(ctx context.Context, line string) ([]byte, error) {
	if line == "fail" {
		return nil, errors.New("no answer")
	}
	return []byte("answer to " + line + "\n"), nil
}

func TestAnswerRecordings(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeRecording(t, dir, "first.wav", "deaths in Kerala"),
		writeRecording(t, dir, "silent.wav", ""),
		filepath.Join(dir, "missing.wav"),
		writeRecording(t, dir, "fail.wav", "fail"),
		writeRecording(t, dir, "last.wav", "cases in Goa"),
	}

	var out bytes.Buffer
	err := answerRecordings(context.Background(), paths, transcriptOf, echoHandler, &out, testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "answer to deaths in Kerala\nanswer to cases in Goa\n", out.String())
}

func TestAnswerRecordings_Cancelled(t *testing.T) {
	path := writeRecording(t, t.TempDir(), "q.wav", "deaths in Kerala")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, answerRecordings(ctx, []string{path}, transcriptOf, echoHandler, &out, testLogger(t)))
	assert.Empty(t, out.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("closed pipe") }

func TestAnswerRecordings_WriteError(t *testing.T) {
	path := writeRecording(t, t.TempDir(), "q.wav", "deaths in Kerala")

	err := answerRecordings(context.Background(), []string{path}, transcriptOf, echoHandler, failingWriter{}, testLogger(t))
	assert.ErrorContains(t, err, "closed pipe")
}

func TestSpeakingHandler(t *testing.T) {
	var spoken []string
	speaker := speech.SpeakerFunc(func(ctx context.Context, text string) error {
		spoken = append(spoken, text)
		if text == "answer to mute" {
			return speech.ErrSpeakFailed
		}
		return nil
	})
	handler := speakingHandler(echoHandler, speaker, testLogger(t))

	out, err := handler(context.Background(), "cases in Goa")
	require.NoError(t, err)
	assert.Equal(t, "answer to cases in Goa\n", string(out))

	out, err = handler(context.Background(), "mute")
	require.NoError(t, err)
	assert.Equal(t, "answer to mute\n", string(out))

	_, err = handler(context.Background(), "fail")
	require.Error(t, err)

	assert.Equal(t, []string{"answer to cases in Goa", "answer to mute"}, spoken)
}
