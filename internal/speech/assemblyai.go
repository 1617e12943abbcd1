package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	assemblyai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/metrics"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AssemblyAI uploads audio to AssemblyAI and waits for the transcript.
type AssemblyAI struct {
	client  *assemblyai.Client
	timeout time.Duration
	logger  logger.Logger
}

func NewAssemblyAI(config *Config, log logger.Logger) *AssemblyAI {
	opts := []assemblyai.ClientOption{assemblyai.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, assemblyai.WithBaseURL(config.BaseURL))
	}
	return &AssemblyAI{
		client:  assemblyai.NewClientWithOptions(opts...),
		timeout: config.Timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "speech"}),
	}
}

func (a *AssemblyAI) Transcribe(ctx context.Context, audio io.Reader) (string, error) {
	start := time.Now()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.transcribe(ctx, audio)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SpeechDuration.WithLabelValues("transcribe", status).Observe(time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn("transcription failed", map[string]interface{}{"error": err.Error()})
		return "", err
	}

	a.logger.Debug("audio transcribed", map[string]interface{}{
		"length":     len(text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return text, nil
}

func (a *AssemblyAI) transcribe(ctx context.Context, audio io.Reader) (string, error) {
	transcript, err := a.client.Transcripts.TranscribeFromReader(ctx, audio, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if transcript.Status == assemblyai.TranscriptStatusError {
		return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, assemblyai.ToString(transcript.Error))
	}

	text := strings.TrimSpace(assemblyai.ToString(transcript.Text))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
