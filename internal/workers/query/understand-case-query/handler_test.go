package understandcasequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/o-richard/covidvisor/internal/common/errors"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/models"
	"github.com/o-richard/covidvisor/internal/understanding"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		MaxQueryLength: 200,
	}
}

func createTestHandler(t *testing.T, c inference.Classifier, r inference.Recognizer) *Handler {
	log := logger.NewTestLogger(t)
	pipeline := understanding.NewPipeline(c, r, understanding.Options{}, log)
	return NewHandler(createTestConfig(), pipeline, nil, log)
}

func classifier(label string, score float64) inference.ClassifierFunc {
	return func(ctx context.Context, text string) ([]inference.Prediction, error) {
		return []inference.Prediction{{Label: label, Score: score}}, nil
	}
}

func recognizer(spans ...inference.Span) inference.RecognizerFunc {
	return func(ctx context.Context, text string) ([]inference.Span, error) {
		return spans, nil
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name       string
		classifier inference.Classifier
		recognizer inference.Recognizer
		query      string
		expected   string
		answerable bool
	}{
		{
			name:       "cases_date",
			classifier: classifier("LABEL_0", 0.93),
			recognizer: recognizer(
				inference.Span{EntityGroup: "LABEL_1", Word: "deaths", Score: 0.96},
				inference.Span{EntityGroup: "LABEL_2", Word: "Kerala", Score: 0.99},
			),
			query:      "How many deaths in Kerala today?",
			expected:   `{"location":"Kerala","date":"today","case_type":"death_cases"}`,
			answerable: true,
		},
		{
			name:       "sum over weeks",
			classifier: classifier("LABEL_3", 0.88),
			recognizer: recognizer(
				inference.Span{EntityGroup: "LABEL_2", Word: "Goa", Score: 0.9},
				inference.Span{EntityGroup: "LABEL_5", Word: "two weeks", Score: 0.91},
			),
			query:      "Total cases in Goa over the last two weeks",
			expected:   `{"location":"Goa","case_type":"active_cases","duration":"- 2 weeks"}`,
			answerable: true,
		},
		{
			name:       "low confidence",
			classifier: classifier("LABEL_4", 0.42),
			recognizer: recognizer(),
			query:      "what is going on",
			expected:   `{}`,
			answerable: false,
		},
		{
			name:       "empty query",
			classifier: classifier("LABEL_4", 0.99),
			recognizer: recognizer(),
			query:      "",
			expected:   `{}`,
			answerable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.classifier, tt.recognizer)

			output, err := handler.Execute(context.Background(), &Input{Query: tt.query})
			require.NoError(t, err)
			require.NotNil(t, output)

			entities, err := json.Marshal(output.Entities)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(entities))
			assert.Equal(t, tt.answerable, output.Answerable)
			assert.GreaterOrEqual(t, output.ProcessingTime, int64(0))
		})
	}
}

func TestHandler_Execute_OutputVariables(t *testing.T) {
	handler := createTestHandler(t,
		classifier("LABEL_5", 0.97),
		recognizer(
			inference.Span{EntityGroup: "LABEL_2", Word: "Delhi", Score: 0.95},
			inference.Span{EntityGroup: "LABEL_4", Word: "five hundred", Score: 0.9},
		),
	)

	output, err := handler.Execute(context.Background(), &Input{Query: "When did Delhi pass five hundred cases?"})
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data),
		`{"intent":"date_based","entities":{"location":"Delhi","case_type":"active_cases","duration":"all_time","lower_bound_number":"500"}`))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		classifier   inference.Classifier
		recognizer   inference.Recognizer
		input        *Input
		expectedErr  error
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "nil input",
			classifier:   classifier("LABEL_0", 0.9),
			recognizer:   recognizer(),
			input:        nil,
			expectedErr:  ErrInvalidInput,
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:         "query too long",
			classifier:   classifier("LABEL_0", 0.9),
			recognizer:   recognizer(),
			input:        &Input{Query: strings.Repeat("a", 201)},
			expectedErr:  ErrQueryTooLong,
			expectedCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name:         "date_based without lower bound",
			classifier:   classifier("LABEL_5", 0.9),
			recognizer:   recognizer(),
			input:        &Input{Query: "when did it start"},
			expectedErr:  understanding.ErrMissingEntity,
			expectedCode: apperrors.ErrCodeMissingEntity,
		},
		{
			name: "classifier timeout",
			classifier: inference.ClassifierFunc(func(ctx context.Context, text string) ([]inference.Prediction, error) {
				return nil, fmt.Errorf("%w: deadline exceeded", inference.ErrInferenceTimeout)
			}),
			recognizer:   recognizer(),
			input:        &Input{Query: "cases in Goa"},
			expectedErr:  inference.ErrInferenceTimeout,
			expectedCode: apperrors.ErrCodeInferenceTimeout,
		},
		{
			name:       "recognizer failure",
			classifier: classifier("LABEL_0", 0.9),
			recognizer: inference.RecognizerFunc(func(ctx context.Context, text string) ([]inference.Span, error) {
				return nil, fmt.Errorf("%w: status 503", inference.ErrInferenceFailed)
			}),
			input:        &Input{Query: "cases in Goa"},
			expectedErr:  inference.ErrInferenceFailed,
			expectedCode: apperrors.ErrCodeInferenceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := createTestHandler(t, tt.classifier, tt.recognizer)

			output, err := handler.Execute(context.Background(), tt.input)
			assert.Nil(t, output)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr), "got %v", err)
			assert.Equal(t, tt.expectedCode, toStandardError(err).Code)
		})
	}
}

func TestToStandardError_Passthrough(t *testing.T) {
	stdErr := apperrors.NewInvalidInputError("bad")
	assert.Same(t, stdErr, toStandardError(stdErr))
	assert.Equal(t, apperrors.ErrCodeInternal, toStandardError(errors.New("other")).Code)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		expected  string
		wantErr   bool
	}{
		{"valid", `{"query":"cases in Goa","other":1}`, "cases in Goa", false},
		{"empty query allowed", `{"query":""}`, "", false},
		{"missing query", `{"text":"cases"}`, "", true},
		{"wrong type", `{"query":42}`, "", true},
		{"malformed", `{"query":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				var stdErr *apperrors.StandardError
				require.True(t, errors.As(err, &stdErr))
				assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, input.Query)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 1000, cfg.MaxQueryLength)
	assert.Equal(t, "understand-case-query", TaskType)
	assert.False(t, models.IntentLowConfidence.Answerable())
}
