package models

// Intent is the coarse kind of question asked about case statistics.
type Intent string

const (
	IntentCasesDate            Intent = "cases_date"
	IntentMaxCasesDuration     Intent = "max_cases_duration"
	IntentAverageCasesDuration Intent = "average_cases_duration"
	IntentSumCasesDuration     Intent = "sum_cases_duration"
	IntentLocationBased        Intent = "location_based"
	IntentDateBased            Intent = "date_based"
	IntentNoMatch              Intent = "no_match"

	// IntentLowConfidence is emitted when the classifier's top score is under
	// the confidence threshold. It is passed downstream as-is.
	IntentLowConfidence Intent = "intent"
)

// Answerable reports whether the case statistics store can answer the intent
// directly.
func (i Intent) Answerable() bool {
	switch i {
	case IntentCasesDate, IntentMaxCasesDuration, IntentAverageCasesDuration,
		IntentSumCasesDuration, IntentLocationBased, IntentDateBased:
		return true
	}
	return false
}

// Parameter field names shared by the understanding pipeline and the answer
// engine.
const (
	FieldLocation         = "location"
	FieldDate             = "date"
	FieldCaseType         = "case_type"
	FieldDuration         = "duration"
	FieldLowerBoundNumber = "lower_bound_number"
)

// Case types and the duration wildcard.
const (
	CaseTypeActive   = "active_cases"
	CaseTypeDeath    = "death_cases"
	CaseTypeRecovery = "recovery_cases"

	DurationAllTime = "all_time"
	DateToday       = "today"
)

// Query is the decoded `{intent, entities}` record.
type Query struct {
	Intent   Intent            `json:"intent"`
	Entities map[string]string `json:"entities"`
}
