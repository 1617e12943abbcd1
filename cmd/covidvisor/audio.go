// cmd/covidvisor/audio.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/o-richard/covidvisor/internal/common/config"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/console"
	"github.com/o-richard/covidvisor/internal/speech"
)

func newTranscriber(cfg *config.Config, log logger.Logger) (*speech.AssemblyAI, error) {
	if cfg.Speech.APIKey == "" {
		return nil, errors.New("speech.api_key (or ASSEMBLY_AI_API_KEY) is required for --audio")
	}
	return speech.NewAssemblyAI(&speech.Config{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
		Timeout: config.GetDuration(cfg.Speech.Timeout),
	}, log), nil
}

// speakingHandler reads every answer aloud after it is produced. A failed
// speaker is logged; the written answer is kept.
func speakingHandler(next console.Handler, speaker speech.Speaker, log logger.Logger) console.Handler {
	return func(ctx context.Context, line string) ([]byte, error) {
		out, err := next(ctx, line)
		if err != nil {
			return nil, err
		}
		if err := speaker.Speak(ctx, strings.TrimSpace(string(out))); err != nil {
			log.Warn("failed to speak answer", map[string]interface{}{"error": err.Error()})
		}
		return out, nil
	}
}

// answerRecordings transcribes each recording and answers the question it
// holds. A recording that cannot be transcribed or answered is logged and
// skipped; only write failures stop the run.
func answerRecordings(ctx context.Context, paths []string, transcriber speech.Transcriber, handler console.Handler, out io.Writer, log logger.Logger) error {
	for _, path := range paths {
		if ctx.Err() != nil {
			return nil
		}

		fields := map[string]interface{}{"audio": path}
		text, err := transcribeFile(ctx, transcriber, path)
		if err != nil {
			fields["error"] = err.Error()
			log.Error("failed to transcribe recording", fields)
			continue
		}

		fields["transcript"] = text
		answer, err := handler(ctx, text)
		if err != nil {
			fields["error"] = err.Error()
			log.Error("failed to answer recording", fields)
			continue
		}
		log.Debug("recording answered", fields)

		if _, err := out.Write(answer); err != nil {
			return fmt.Errorf("write answer: %w", err)
		}
	}
	return nil
}

func transcribeFile(ctx context.Context, transcriber speech.Transcriber, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return transcriber.Transcribe(ctx, f)
}
