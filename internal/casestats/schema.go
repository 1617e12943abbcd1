package casestats

import (
	"fmt"
	"strings"

	"github.com/o-richard/covidvisor/internal/common/validation"
	"github.com/o-richard/covidvisor/internal/models"
)

const entityProperties = `{
	"location": {"type": "string"},
	"date": {"type": "string", "enum": ["today"]},
	"case_type": {"type": "string", "enum": ["active_cases", "death_cases", "recovery_cases"]},
	"duration": {"type": "string", "pattern": "^(all_time|- [0-9]+ (days|weeks|months|years))$"},
	"lower_bound_number": {"type": "string", "pattern": "^[0-9]+$"}
}`

func recordSchema(intent models.Intent, required ...string) *validation.Schema {
	return validation.MustCompile(fmt.Sprintf(`{
		"type": "object",
		"required": ["intent", "entities"],
		"properties": {
			"intent": {"type": "string", "enum": [%q]},
			"entities": {
				"type": "object",
				"required": ["%s"],
				"properties": %s
			}
		}
	}`, intent, strings.Join(required, `", "`), entityProperties))
}

// querySchemas lists the fields each answerable intent needs.
var querySchemas = map[models.Intent]*validation.Schema{
	models.IntentCasesDate: recordSchema(models.IntentCasesDate,
		models.FieldLocation, models.FieldDate, models.FieldCaseType),
	models.IntentMaxCasesDuration: recordSchema(models.IntentMaxCasesDuration,
		models.FieldLocation, models.FieldCaseType, models.FieldDuration),
	models.IntentAverageCasesDuration: recordSchema(models.IntentAverageCasesDuration,
		models.FieldLocation, models.FieldCaseType, models.FieldDuration),
	models.IntentSumCasesDuration: recordSchema(models.IntentSumCasesDuration,
		models.FieldLocation, models.FieldCaseType, models.FieldDuration),
	models.IntentLocationBased: recordSchema(models.IntentLocationBased,
		models.FieldCaseType),
	models.IntentDateBased: recordSchema(models.IntentDateBased,
		models.FieldLocation, models.FieldCaseType, models.FieldDuration, models.FieldLowerBoundNumber),
}

// ValidateQuery checks an answerable query against its intent's schema.
func ValidateQuery(q models.Query) error {
	schema, ok := querySchemas[q.Intent]
	if !ok {
		return fmt.Errorf("%w: intent %q", ErrInvalidQuery, q.Intent)
	}
	if q.Entities == nil {
		q.Entities = map[string]string{}
	}
	result, err := schema.Validate(q)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidQuery, strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
