package understanding

import (
	"fmt"
	"strings"

	"github.com/o-richard/covidvisor/internal/models"
)

// EntityLabel is a canonical NER label.
type EntityLabel string

const (
	LabelCaseType         EntityLabel = "CASE_TYPE"
	LabelLocation         EntityLabel = "LOCATION"
	LabelDate             EntityLabel = "DATE"
	LabelLowerBoundNumber EntityLabel = "LOWER_BOUND_NUMBER"
	LabelDuration         EntityLabel = "DURATION"
)

// EntityBag holds the best surviving span text per label for one query.
type EntityBag map[EntityLabel]string

// durationUnits is checked in order; the first unit found in the text wins.
var durationUnits = []struct {
	needle string
	unit   string
}{
	{"day", "days"},
	{"week", "weeks"},
	{"month", "months"},
	{"year", "years"},
}

// Location returns the LOCATION text or "".
func (b EntityBag) Location() string {
	return b[LabelLocation]
}

// CaseType folds the CASE_TYPE text into one of the canonical case types.
// "death" is checked before "recover"; anything else is active cases.
func (b EntityBag) CaseType() string {
	text, ok := b[LabelCaseType]
	if !ok {
		return models.CaseTypeActive
	}
	switch {
	case strings.Contains(text, "death"):
		return models.CaseTypeDeath
	case strings.Contains(text, "recover"):
		return models.CaseTypeRecovery
	default:
		return models.CaseTypeActive
	}
}

// Duration renders the DURATION (or, failing that, DATE) text as a relative
// window such as "- 5 days". Text without a recognised unit is all_time.
func (b EntityBag) Duration() string {
	source, ok := b[LabelDuration]
	if !ok {
		source, ok = b[LabelDate]
	}
	if !ok {
		source = models.DurationAllTime
	}

	n := ExtractInteger(source, 1)
	for _, u := range durationUnits {
		if strings.Contains(source, u.needle) {
			return fmt.Sprintf("- %s %s", n, u.unit)
		}
	}
	return models.DurationAllTime
}

// LowerBoundNumber extracts the LOWER_BOUND_NUMBER count. Unlike the other
// fields it has no default: a missing entity is an error.
func (b EntityBag) LowerBoundNumber() (string, error) {
	text, ok := b[LabelLowerBoundNumber]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEntity, LabelLowerBoundNumber)
	}
	return ExtractInteger(text, 1), nil
}
