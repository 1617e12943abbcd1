// Package inference talks to the model server hosting the fine-tuned intent
// classifier and the NER model.
package inference

import (
	"context"
	"errors"
)

var (
	ErrInferenceFailed  = errors.New("INFERENCE_FAILED")
	ErrInferenceTimeout = errors.New("INFERENCE_TIMEOUT")
)

// Prediction is one ranked classifier label.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Span is one aggregated NER span.
type Span struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

// Classifier returns predictions ranked by score, best first.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Prediction, error)
}

// Recognizer returns the entity spans found in text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Span, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) ([]Prediction, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]Prediction, error) {
	return f(ctx, text)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) ([]Span, error)

func (f RecognizerFunc) Recognize(ctx context.Context, text string) ([]Span, error) {
	return f(ctx, text)
}
