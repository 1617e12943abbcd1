package understanding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/models"
)

func staticClassifier(predictions ...inference.Prediction) inference.ClassifierFunc {
	return func(ctx context.Context, text string) ([]inference.Prediction, error) {
		return predictions, nil
	}
}

func staticRecognizer(spans ...inference.Span) inference.RecognizerFunc {
	return func(ctx context.Context, text string) ([]inference.Span, error) {
		return spans, nil
	}
}

func createTestPipeline(t *testing.T, c inference.Classifier, r inference.Recognizer) *Pipeline {
	return NewPipeline(c, r, Options{}, logger.NewTestLogger(t))
}

type memoryCache struct {
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func TestPipeline_ProcessJSON(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		predictions []inference.Prediction
		spans       []inference.Span
		expected    string
	}{
		{
			name:        "location_based with defaulted case type",
			text:        "Which state has the most cases?",
			predictions: []inference.Prediction{{Label: "LABEL_4", Score: 0.95}},
			expected:    `{"intent":"location_based","entities":{"case_type":"active_cases"}}`,
		},
		{
			name:        "cases_date",
			text:        "How many deaths in Kerala today?",
			predictions: []inference.Prediction{{Label: "LABEL_0", Score: 0.92}},
			spans: []inference.Span{
				{EntityGroup: "LABEL_1", Word: "deaths", Score: 0.97},
				{EntityGroup: "LABEL_2", Word: "Kerala", Score: 0.99},
				{EntityGroup: "LABEL_3", Word: "today", Score: 0.9},
			},
			expected: `{"intent":"cases_date","entities":{"location":"Kerala","date":"today","case_type":"death_cases"}}`,
		},
		{
			name:        "sum over a spelled out duration",
			text:        "Total recoveries in Delhi over the past three weeks",
			predictions: []inference.Prediction{{Label: "LABEL_3", Score: 0.9}},
			spans: []inference.Span{
				{EntityGroup: "LABEL_1", Word: "recoveries", Score: 0.91},
				{EntityGroup: "LABEL_2", Word: "Delhi", Score: 0.98},
				{EntityGroup: "LABEL_5", Word: "three weeks", Score: 0.85},
			},
			expected: `{"intent":"sum_cases_duration","entities":{"location":"Delhi","case_type":"recovery_cases","duration":"- 3 weeks"}}`,
		},
		{
			name:        "date_based",
			text:        "Days with more than 500 cases in Goa in the last 2 months",
			predictions: []inference.Prediction{{Label: "LABEL_5", Score: 0.93}},
			spans: []inference.Span{
				{EntityGroup: "LABEL_2", Word: "Goa", Score: 0.96},
				{EntityGroup: "LABEL_4", Word: "more than 500", Score: 0.88},
				{EntityGroup: "LABEL_5", Word: "2 months", Score: 0.9},
			},
			expected: `{"intent":"date_based","entities":{"location":"Goa","case_type":"active_cases","duration":"- 2 months","lower_bound_number":"500"}}`,
		},
		{
			name:        "low confidence passes the sentinel through",
			text:        "tell me something",
			predictions: []inference.Prediction{{Label: "LABEL_0", Score: 0.4}},
			expected:    `{"intent":"intent","entities":{}}`,
		},
		{
			name:     "empty classifier output",
			text:     "???",
			expected: `{"intent":"no_match","entities":{}}`,
		},
		{
			name:     "empty query",
			text:     "",
			expected: `{"intent":"no_match","entities":{}}`,
		},
		{
			name:        "whitespace query still reaches the models",
			text:        "   ",
			predictions: []inference.Prediction{{Label: "LABEL_4", Score: 0.99}},
			expected:    `{"intent":"location_based","entities":{"case_type":"active_cases"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := createTestPipeline(t, staticClassifier(tt.predictions...), staticRecognizer(tt.spans...))

			data, err := p.ProcessJSON(context.Background(), tt.text)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestPipeline_EmptyQuerySkipsModels(t *testing.T) {
	var calls int32
	c := inference.ClassifierFunc(func(ctx context.Context, text string) ([]inference.Prediction, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	r := inference.RecognizerFunc(func(ctx context.Context, text string) ([]inference.Span, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	result, err := createTestPipeline(t, c, r).Process(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, models.IntentNoMatch, result.Intent)
	assert.Empty(t, result.Entities)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPipeline_WhitespaceQueryCallsModels(t *testing.T) {
	var calls int32
	c := inference.ClassifierFunc(func(ctx context.Context, text string) ([]inference.Prediction, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	r := inference.RecognizerFunc(func(ctx context.Context, text string) ([]inference.Span, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	result, err := createTestPipeline(t, c, r).Process(context.Background(), " \t")
	require.NoError(t, err)
	assert.Equal(t, models.IntentNoMatch, result.Intent)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPipeline_Idempotent(t *testing.T) {
	p := createTestPipeline(t,
		staticClassifier(inference.Prediction{Label: "LABEL_1", Score: 0.9}),
		staticRecognizer(inference.Span{EntityGroup: "LABEL_2", Word: "Goa", Score: 0.9}),
	)

	first, err := p.ProcessJSON(context.Background(), "peak cases in Goa")
	require.NoError(t, err)
	second, err := p.ProcessJSON(context.Background(), "peak cases in Goa")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPipeline_DateBasedMissingLowerBound(t *testing.T) {
	p := createTestPipeline(t,
		staticClassifier(inference.Prediction{Label: "LABEL_5", Score: 0.9}),
		staticRecognizer(inference.Span{EntityGroup: "LABEL_2", Word: "Goa", Score: 0.9}),
	)

	_, err := p.Process(context.Background(), "days with many cases in Goa")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingEntity)
	assert.Equal(t, "MISSING_ENTITY", errorCode(err))
}

func TestPipeline_ModelErrors(t *testing.T) {
	tests := []struct {
		name       string
		classifier inference.Classifier
		recognizer inference.Recognizer
		expected   error
		code       string
	}{
		{
			name: "classifier failure",
			classifier: inference.ClassifierFunc(func(ctx context.Context, text string) ([]inference.Prediction, error) {
				return nil, inference.ErrInferenceFailed
			}),
			recognizer: staticRecognizer(),
			expected:   inference.ErrInferenceFailed,
			code:       "INFERENCE_FAILED",
		},
		{
			name:       "recognizer timeout",
			classifier: staticClassifier(inference.Prediction{Label: "LABEL_0", Score: 0.9}),
			recognizer: inference.RecognizerFunc(func(ctx context.Context, text string) ([]inference.Span, error) {
				return nil, inference.ErrInferenceTimeout
			}),
			expected: inference.ErrInferenceTimeout,
			code:     "INFERENCE_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := createTestPipeline(t, tt.classifier, tt.recognizer)

			data, err := p.ProcessJSON(context.Background(), "cases in Goa")
			assert.Nil(t, data)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, tt.code, errorCode(err))
		})
	}
}

func TestPipeline_Cache(t *testing.T) {
	var calls int32
	c := inference.ClassifierFunc(func(ctx context.Context, text string) ([]inference.Prediction, error) {
		atomic.AddInt32(&calls, 1)
		return []inference.Prediction{{Label: "LABEL_4", Score: 0.9}}, nil
	})

	cache := newMemoryCache()
	p := createTestPipeline(t, c, staticRecognizer()).WithCache(cache)

	first, err := p.ProcessJSON(context.Background(), "worst hit state")
	require.NoError(t, err)
	second, err := p.ProcessJSON(context.Background(), "worst hit state")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.data, CacheKey("worst hit state"))
}

func TestPipeline_CacheFailuresIgnored(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	p := createTestPipeline(t,
		staticClassifier(inference.Prediction{Label: "LABEL_4", Score: 0.9}),
		staticRecognizer(),
	).WithCache(cache)

	data, err := p.ProcessJSON(context.Background(), "worst hit state")
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"location_based","entities":{"case_type":"active_cases"}}`, string(data))
	assert.Equal(t, 1, cache.sets)
}

func TestAggregateEntities(t *testing.T) {
	spans := []inference.Span{
		{EntityGroup: "LABEL_2", Word: "Goa", Score: 0.85},
		{EntityGroup: "LABEL_2", Word: "Kerala", Score: 0.95},
		{EntityGroup: "LABEL_2", Word: "Delhi", Score: 0.95},
		{EntityGroup: "LABEL_1", Word: "deaths", Score: 0.5},
		{EntityGroup: "LABEL_0", Word: "in", Score: 0.99},
		{EntityGroup: "LABEL_5", Word: "a week", Score: 0.8},
	}

	bag := AggregateEntities(spans, DefaultEntityLabels, DefaultConfidenceThreshold)

	assert.Equal(t, EntityBag{
		LabelLocation: "Kerala",
		LabelDuration: "a week",
	}, bag)
}
