package understanding

import (
	"fmt"
	"strings"

	"github.com/o-richard/covidvisor/internal/common/config"
	"github.com/o-richard/covidvisor/internal/models"
)

var knownEntityLabels = map[EntityLabel]bool{
	LabelCaseType:         true,
	LabelLocation:         true,
	LabelDate:             true,
	LabelLowerBoundNumber: true,
	LabelDuration:         true,
}

// OptionsFromConfig converts the inference section into pipeline options,
// rejecting table values that name an unknown intent or entity label.
func OptionsFromConfig(cfg config.InferenceConfig) (Options, error) {
	opts := Options{
		IntentThreshold: cfg.IntentThreshold,
		EntityThreshold: cfg.EntityThreshold,
	}

	if len(cfg.IntentLabels) > 0 {
		opts.IntentLabels = make(map[string]models.Intent, len(cfg.IntentLabels))
		for label, name := range cfg.IntentLabels {
			intent := models.Intent(name)
			if !intent.Answerable() {
				return Options{}, fmt.Errorf("inference.intent_labels.%s: unknown intent %q", label, name)
			}
			opts.IntentLabels[label] = intent
		}
	}

	if len(cfg.EntityLabels) > 0 {
		opts.EntityLabels = make(map[string]EntityLabel, len(cfg.EntityLabels))
		for group, name := range cfg.EntityLabels {
			label := EntityLabel(strings.ToUpper(name))
			if !knownEntityLabels[label] {
				return Options{}, fmt.Errorf("inference.entity_labels.%s: unknown entity label %q", group, name)
			}
			opts.EntityLabels[group] = label
		}
	}

	return opts, nil
}
