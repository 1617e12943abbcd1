package understanding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/o-richard/covidvisor/internal/models"
)

func TestEntityBag_CaseType(t *testing.T) {
	tests := []struct {
		name     string
		bag      EntityBag
		expected string
	}{
		{"death", EntityBag{LabelCaseType: "death toll"}, models.CaseTypeDeath},
		{"deaths plural", EntityBag{LabelCaseType: "deaths"}, models.CaseTypeDeath},
		{"recovered", EntityBag{LabelCaseType: "recovered patients"}, models.CaseTypeRecovery},
		{"recoveries", EntityBag{LabelCaseType: "recoveries"}, models.CaseTypeRecovery},
		{"death checked before recovery", EntityBag{LabelCaseType: "recovered or death"}, models.CaseTypeDeath},
		{"active", EntityBag{LabelCaseType: "active cases"}, models.CaseTypeActive},
		{"unmatched", EntityBag{LabelCaseType: "infections"}, models.CaseTypeActive},
		{"absent", EntityBag{}, models.CaseTypeActive},
		{"matching is case sensitive", EntityBag{LabelCaseType: "Deaths"}, models.CaseTypeActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.bag.CaseType())
		})
	}
}

func TestEntityBag_Duration(t *testing.T) {
	tests := []struct {
		name     string
		bag      EntityBag
		expected string
	}{
		{"days", EntityBag{LabelDuration: "5 days"}, "- 5 days"},
		{"weeks from words", EntityBag{LabelDuration: "three weeks"}, "- 3 weeks"},
		{"singular unit", EntityBag{LabelDuration: "last month"}, "- 1 months"},
		{"years", EntityBag{LabelDuration: "2 years"}, "- 2 years"},
		{"date fallback", EntityBag{LabelDate: "2 months"}, "- 2 months"},
		{"duration preferred over date", EntityBag{LabelDuration: "4 weeks", LabelDate: "2 months"}, "- 4 weeks"},
		{"day checked before week", EntityBag{LabelDuration: "10 days in a week"}, "- 10 days"},
		{"today reads as a day", EntityBag{LabelDate: "today"}, "- 1 days"},
		{"no unit", EntityBag{LabelDuration: "recently"}, models.DurationAllTime},
		{"unit-less count discarded", EntityBag{LabelDuration: "12"}, models.DurationAllTime},
		{"absent", EntityBag{}, models.DurationAllTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.bag.Duration())
		})
	}
}

func TestEntityBag_Location(t *testing.T) {
	assert.Equal(t, "New York", EntityBag{LabelLocation: "New York"}.Location())
	assert.Equal(t, "", EntityBag{}.Location())
}

func TestEntityBag_LowerBoundNumber(t *testing.T) {
	got, err := EntityBag{LabelLowerBoundNumber: "more than 500"}.LowerBoundNumber()
	assert.NoError(t, err)
	assert.Equal(t, "500", got)

	got, err = EntityBag{LabelLowerBoundNumber: "a hundred"}.LowerBoundNumber()
	assert.NoError(t, err)
	assert.Equal(t, "100", got)

	_, err = EntityBag{}.LowerBoundNumber()
	assert.True(t, errors.Is(err, ErrMissingEntity))
	assert.Contains(t, err.Error(), "LOWER_BOUND_NUMBER")
}
