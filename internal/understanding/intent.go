package understanding

import (
	"strings"

	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/models"
)

// DefaultConfidenceThreshold applies to both the classifier and NER spans.
const DefaultConfidenceThreshold = 0.8

// DefaultIntentLabels maps the fine-tuned classifier's output labels.
var DefaultIntentLabels = map[string]models.Intent{
	"LABEL_0": models.IntentCasesDate,
	"LABEL_1": models.IntentMaxCasesDuration,
	"LABEL_2": models.IntentAverageCasesDuration,
	"LABEL_3": models.IntentSumCasesDuration,
	"LABEL_4": models.IntentLocationBased,
	"LABEL_5": models.IntentDateBased,
}

// IntentResolver turns the classifier's top prediction into an Intent.
type IntentResolver struct {
	labels    map[string]models.Intent
	threshold float64
}

func NewIntentResolver(labels map[string]models.Intent, threshold float64) *IntentResolver {
	if labels == nil {
		labels = DefaultIntentLabels
	}
	return &IntentResolver{labels: labels, threshold: threshold}
}

// Resolve picks the intent for the top-ranked prediction. Labels fall back to
// a lower-cased lookup to match tables loaded through viper. The low-confidence
// override is applied after the table lookup, so an unmapped label with a low
// score also resolves to the sentinel.
func (r *IntentResolver) Resolve(predictions []inference.Prediction) models.Intent {
	if len(predictions) == 0 {
		return models.IntentNoMatch
	}
	top := predictions[0]
	for _, p := range predictions[1:] {
		if p.Score > top.Score {
			top = p
		}
	}

	intent, ok := r.labels[top.Label]
	if !ok {
		intent, ok = r.labels[strings.ToLower(top.Label)]
	}
	if !ok {
		intent = models.IntentNoMatch
	}
	if top.Score < r.threshold {
		intent = models.IntentLowConfidence
	}
	return intent
}
