package casestats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/metrics"
	"github.com/o-richard/covidvisor/internal/models"
)

const (
	// NoMatchingData is the answer when a statistic selects no row.
	NoMatchingData = "No matching data available."
	// CustomQuery marks records the store cannot answer, such as no_match or
	// the low-confidence sentinel.
	CustomQuery = "custom query"
)

// Answer is the engine's reply to one query record.
type Answer struct {
	Intent models.Intent `json:"intent"`
	Text   string        `json:"answer"`
	Custom bool          `json:"custom"`
}

// Engine validates query records and answers them from the store.
type Engine struct {
	store   *Store
	timeout time.Duration
	logger  logger.Logger
}

func NewEngine(store *Store, timeout time.Duration, log logger.Logger) *Engine {
	return &Engine{
		store:   store,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "answer-engine"}),
	}
}

// Answer resolves q. Unanswerable intents are not an error; they yield a
// custom answer.
func (e *Engine) Answer(ctx context.Context, q models.Query) (*Answer, error) {
	if !q.Intent.Answerable() {
		metrics.AnswersServed.WithLabelValues(string(q.Intent), "custom").Inc()
		return &Answer{Intent: q.Intent, Text: CustomQuery, Custom: true}, nil
	}

	if err := ValidateQuery(q); err != nil {
		metrics.AnswersServed.WithLabelValues(string(q.Intent), "invalid").Inc()
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	text, found, err := e.store.Lookup(ctx, q)
	if err != nil {
		metrics.AnswersServed.WithLabelValues(string(q.Intent), "error").Inc()
		e.logger.Error("lookup failed", map[string]interface{}{
			"intent": q.Intent,
			"error":  err.Error(),
		})
		return nil, err
	}
	if !found {
		metrics.AnswersServed.WithLabelValues(string(q.Intent), "no_data").Inc()
		return &Answer{Intent: q.Intent, Text: NoMatchingData}, nil
	}

	metrics.AnswersServed.WithLabelValues(string(q.Intent), "answered").Inc()
	e.logger.Debug("query answered", map[string]interface{}{"intent": q.Intent, "answer": text})
	return &Answer{Intent: q.Intent, Text: text}, nil
}

// AnswerJSON decodes an `{intent, entities}` record and answers it.
func (e *Engine) AnswerJSON(ctx context.Context, data []byte) (*Answer, error) {
	var q models.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return e.Answer(ctx, q)
}

// IsRetryable reports whether err came from the database rather than the
// record itself.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrQueryFailed) || errors.Is(err, ErrQueryTimeout)
}
