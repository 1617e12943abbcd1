package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/o-richard/covidvisor/internal/common/metrics"
)

// CommandSpeaker runs a text-to-speech program such as espeak with the text
// as its last argument.
type CommandSpeaker struct {
	Command string
	Args    []string
}

func NewCommandSpeaker(command string, args ...string) *CommandSpeaker {
	return &CommandSpeaker{Command: command, Args: args}
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	start := time.Now()
	args := append(append([]string{}, s.Args...), text)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Command, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.SpeechDuration.WithLabelValues("speak", status).Observe(time.Since(start).Seconds())
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s: %v: %s", ErrSpeakFailed, s.Command, err, msg)
		}
		return fmt.Errorf("%w: %s: %v", ErrSpeakFailed, s.Command, err)
	}
	return nil
}
