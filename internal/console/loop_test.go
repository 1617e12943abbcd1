package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o-richard/covidvisor/internal/common/logger"
)

func echoHandler(seen *[]string) Handler {
	return func(ctx context.Context, line string) ([]byte, error) {
		*seen = append(*seen, line)
		if line == "fail" {
			return nil, errors.New("boom")
		}
		return []byte("<" + line + ">"), nil
	}
}

func TestLoop_Run(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		seen     []string
	}{
		{
			name:     "stops at sentinel",
			input:    "first\nsecond\nq\nnever\n",
			expected: "<first><second>",
			seen:     []string{"first", "second"},
		},
		{
			name:     "sentinel with trailing whitespace",
			input:    "one\nq  \r\nnever\n",
			expected: "<one>",
			seen:     []string{"one"},
		},
		{
			name:     "stops at EOF",
			input:    "one\ntwo\n",
			expected: "<one><two>",
			seen:     []string{"one", "two"},
		},
		{
			name:     "last line without newline",
			input:    "one\ntwo",
			expected: "<one><two>",
			seen:     []string{"one", "two"},
		},
		{
			name:     "crlf stripped",
			input:    "one\r\n",
			expected: "<one>",
			seen:     []string{"one"},
		},
		{
			name:     "failed line writes nothing and continues",
			input:    "one\nfail\nthree\n",
			expected: "<one><three>",
			seen:     []string{"one", "fail", "three"},
		},
		{
			name:     "empty line is still processed",
			input:    "\nq\n",
			expected: "<>",
			seen:     []string{""},
		},
		{
			name:     "leading whitespace is not the sentinel",
			input:    " q\n",
			expected: "< q>",
			seen:     []string{" q"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
			seen:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				out  bytes.Buffer
				seen []string
			)
			loop := NewLoop(strings.NewReader(tt.input), &out, echoHandler(&seen), logger.NewTestLogger(t))

			require.NoError(t, loop.Run(context.Background()))
			assert.Equal(t, tt.expected, out.String())
			assert.Equal(t, tt.seen, seen)
		})
	}
}

func TestLoop_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var seen []string
	loop := NewLoop(strings.NewReader("one\n"), &bytes.Buffer{}, echoHandler(&seen), logger.NewTestLogger(t))
	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
	assert.Empty(t, seen)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestLoop_Run_WriteError(t *testing.T) {
	var seen []string
	loop := NewLoop(strings.NewReader("one\ntwo\n"), failingWriter{}, echoHandler(&seen), logger.NewTestLogger(t))
	assert.Error(t, loop.Run(context.Background()))
	assert.Equal(t, []string{"one"}, seen)
}
