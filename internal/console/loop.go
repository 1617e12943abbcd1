// Package console runs the line-oriented stdin/stdout loop.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/o-richard/covidvisor/internal/common/logger"
)

// Sentinel ends the loop when it is the whole line.
const Sentinel = "q"

// Handler turns one input line into the bytes written for it.
type Handler func(ctx context.Context, line string) ([]byte, error)

type Loop struct {
	in      *bufio.Reader
	out     *bufio.Writer
	handler Handler
	logger  logger.Logger
}

func NewLoop(in io.Reader, out io.Writer, handler Handler, log logger.Logger) *Loop {
	return &Loop{
		in:      bufio.NewReader(in),
		out:     bufio.NewWriter(out),
		handler: handler,
		logger:  log.WithFields(map[string]interface{}{"component": "console"}),
	}
}

// Run reads lines until the sentinel, EOF or ctx is done. Lines run one at a
// time; a failed line writes nothing and is logged.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := l.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read input: %w", readErr)
		}
		atEOF := readErr != nil
		if atEOF && line == "" {
			return nil
		}

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimRight(line, " \t") == Sentinel {
			return nil
		}

		if err := l.handle(ctx, line); err != nil {
			return err
		}
		if atEOF {
			return nil
		}
	}
}

func (l *Loop) handle(ctx context.Context, line string) error {
	data, err := l.handler(ctx, line)
	if err != nil {
		l.logger.Error("failed to process line", map[string]interface{}{
			"lineId": uuid.New().String(),
			"error":  err.Error(),
		})
		return nil
	}

	if _, err := l.out.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := l.out.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
