package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	httpclient "github.com/o-richard/covidvisor/internal/common/http"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/metrics"
)

type Config struct {
	BaseURL         string
	ClassifierModel string
	RecognizerModel string
	APIToken        string
	Timeout         time.Duration
	MaxRetries      int
}

// Client calls a Hugging Face style inference server:
// POST {BaseURL}/{model} with {"inputs": ..., "parameters": ...}.
type Client struct {
	config *Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   httpclient.NewClient(config.Timeout, config.MaxRetries),
		logger: log.WithFields(map[string]interface{}{"component": "inference"}),
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *httpclient.Client) *Client {
	c.http = h
	return c
}

type request struct {
	Inputs     string                 `json:"inputs"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Classify returns the top-1 label for text.
func (c *Client) Classify(ctx context.Context, text string) ([]Prediction, error) {
	body, err := c.post(ctx, c.config.ClassifierModel, request{
		Inputs:     text,
		Parameters: map[string]interface{}{"top_k": 1},
	})
	if err != nil {
		return nil, err
	}

	predictions, err := decodePredictions(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode classification: %v", ErrInferenceFailed, err)
	}
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	return predictions, nil
}

// Recognize returns spans aggregated with the "simple" strategy.
func (c *Client) Recognize(ctx context.Context, text string) ([]Span, error) {
	body, err := c.post(ctx, c.config.RecognizerModel, request{
		Inputs:     text,
		Parameters: map[string]interface{}{"aggregation_strategy": "simple"},
	})
	if err != nil {
		return nil, err
	}

	var spans []Span
	if err := json.Unmarshal(body, &spans); err != nil {
		return nil, fmt.Errorf("%w: decode entities: %v", ErrInferenceFailed, err)
	}
	return spans, nil
}

func (c *Client) post(ctx context.Context, model string, payload request) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	url := strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(model, "/")

	timer := prometheus.NewTimer(metrics.InferenceDuration.WithLabelValues(model))
	defer timer.ObserveDuration()

	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
		}
		return req, nil
	})
	if err != nil {
		metrics.InferenceFailures.WithLabelValues(model).Inc()
		c.logger.Warn("inference request failed", map[string]interface{}{
			"model": model,
			"error": err.Error(),
		})
		if errors.Is(err, httpclient.ErrRequestTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrInferenceFailed, err)
	}
	return body, nil
}

// decodePredictions accepts both the flat and the batched response shapes.
func decodePredictions(body []byte) ([]Prediction, error) {
	var nested [][]Prediction
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) == 0 {
			return nil, nil
		}
		return nested[0], nil
	}

	var flat []Prediction
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}
