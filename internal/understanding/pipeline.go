package understanding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/metrics"
	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/models"
)

// DefaultEntityLabels maps the fine-tuned NER model's entity groups. LABEL_0
// is the outside tag and is never mapped.
var DefaultEntityLabels = map[string]EntityLabel{
	"LABEL_1": LabelCaseType,
	"LABEL_2": LabelLocation,
	"LABEL_3": LabelDate,
	"LABEL_4": LabelLowerBoundNumber,
	"LABEL_5": LabelDuration,
}

type Options struct {
	IntentLabels    map[string]models.Intent
	EntityLabels    map[string]EntityLabel
	IntentThreshold float64
	EntityThreshold float64
}

// Result is the structured form of one understood query.
type Result struct {
	Intent   models.Intent `json:"intent"`
	Entities Parameters    `json:"entities"`
}

// Pipeline fuses the classifier and NER outputs into a Result. It holds no
// mutable state and is safe for concurrent use.
type Pipeline struct {
	classifier      inference.Classifier
	recognizer      inference.Recognizer
	resolver        *IntentResolver
	entityLabels    map[string]EntityLabel
	entityThreshold float64
	cache           Cache
	logger          logger.Logger
}

func NewPipeline(classifier inference.Classifier, recognizer inference.Recognizer, opts Options, log logger.Logger) *Pipeline {
	if opts.IntentThreshold == 0 {
		opts.IntentThreshold = DefaultConfidenceThreshold
	}
	if opts.EntityThreshold == 0 {
		opts.EntityThreshold = DefaultConfidenceThreshold
	}
	if opts.EntityLabels == nil {
		opts.EntityLabels = DefaultEntityLabels
	}
	return &Pipeline{
		classifier:      classifier,
		recognizer:      recognizer,
		resolver:        NewIntentResolver(opts.IntentLabels, opts.IntentThreshold),
		entityLabels:    opts.EntityLabels,
		entityThreshold: opts.EntityThreshold,
		logger:          log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// WithCache enables result caching for ProcessJSON.
func (p *Pipeline) WithCache(c Cache) *Pipeline {
	p.cache = c
	return p
}

// Process understands one query. Model transport failures and a date_based
// query without a lower bound are returned as errors; an empty classifier
// result is not an error and resolves to no_match.
func (p *Pipeline) Process(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	log := p.logger.WithFields(map[string]interface{}{"queryId": uuid.New().String()})

	result, err := p.process(ctx, text)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueriesFailed.WithLabelValues(errorCode(err)).Inc()
		log.Error("query processing failed", map[string]interface{}{
			"error":     err.Error(),
			"errorCode": errorCode(err),
		})
		return nil, err
	}

	metrics.QueriesProcessed.WithLabelValues(string(result.Intent)).Inc()
	log.Info("query processed", map[string]interface{}{
		"intent":      result.Intent,
		"entityCount": len(result.Entities),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, text string) (*Result, error) {
	if text == "" {
		return &Result{Intent: models.IntentNoMatch, Entities: Parameters{}}, nil
	}

	var (
		predictions []inference.Prediction
		spans       []inference.Span
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		predictions, err = p.classifier.Classify(gctx, text)
		return err
	})
	g.Go(func() error {
		var err error
		spans, err = p.recognizer.Recognize(gctx, text)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	intent := p.resolver.Resolve(predictions)
	bag := AggregateEntities(spans, p.entityLabels, p.entityThreshold)

	params, err := BuildParameters(intent, bag)
	if err != nil {
		return nil, fmt.Errorf("build parameters for %s: %w", intent, err)
	}
	return &Result{Intent: intent, Entities: params}, nil
}

// ProcessJSON returns the encoded `{intent, entities}` record, consulting the
// cache when one is configured. Cache failures are logged and ignored.
func (p *Pipeline) ProcessJSON(ctx context.Context, text string) ([]byte, error) {
	key := CacheKey(text)
	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			p.logger.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		case ok:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	result, err := p.Process(ctx, text)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, data); err != nil {
			p.logger.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return data, nil
}

// AggregateEntities keeps, per canonical label, the text of the span with the
// highest score at or above threshold. Unmapped groups and weaker spans are
// dropped; ties keep the incumbent.
func AggregateEntities(spans []inference.Span, labels map[string]EntityLabel, threshold float64) EntityBag {
	bag := EntityBag{}
	best := map[EntityLabel]float64{}
	for _, s := range spans {
		label, ok := labels[s.EntityGroup]
		if !ok {
			label, ok = labels[strings.ToLower(s.EntityGroup)]
		}
		if !ok || s.Score < threshold {
			continue
		}
		if score, seen := best[label]; !seen || s.Score > score {
			best[label] = s.Score
			bag[label] = s.Word
		}
	}
	return bag
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrMissingEntity):
		return "MISSING_ENTITY"
	case errors.Is(err, inference.ErrInferenceTimeout):
		return "INFERENCE_TIMEOUT"
	case errors.Is(err, inference.ErrInferenceFailed):
		return "INFERENCE_FAILED"
	default:
		return "UNKNOWN_ERROR"
	}
}
