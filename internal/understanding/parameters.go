package understanding

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/o-richard/covidvisor/internal/models"
)

var (
	ErrMissingEntity = errors.New("MISSING_ENTITY")
)

// Field is one named value of a parameter record.
type Field struct {
	Name  string
	Value string
}

// Parameters is an intent-specific record. Field order is preserved when
// encoding to JSON.
type Parameters []Field

func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuildParameters emits the record for intent. Intents outside the six
// answerable ones, including no_match and the low-confidence sentinel, get an
// empty record.
func BuildParameters(intent models.Intent, bag EntityBag) (Parameters, error) {
	switch intent {
	case models.IntentCasesDate:
		return Parameters{
			{models.FieldLocation, bag.Location()},
			{models.FieldDate, models.DateToday},
			{models.FieldCaseType, bag.CaseType()},
		}, nil
	case models.IntentMaxCasesDuration, models.IntentAverageCasesDuration, models.IntentSumCasesDuration:
		return Parameters{
			{models.FieldLocation, bag.Location()},
			{models.FieldCaseType, bag.CaseType()},
			{models.FieldDuration, bag.Duration()},
		}, nil
	case models.IntentLocationBased:
		return Parameters{
			{models.FieldCaseType, bag.CaseType()},
		}, nil
	case models.IntentDateBased:
		lower, err := bag.LowerBoundNumber()
		if err != nil {
			return nil, err
		}
		return Parameters{
			{models.FieldLocation, bag.Location()},
			{models.FieldCaseType, bag.CaseType()},
			{models.FieldDuration, bag.Duration()},
			{models.FieldLowerBoundNumber, lower},
		}, nil
	default:
		return Parameters{}, nil
	}
}
