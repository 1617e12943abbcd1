package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewInferenceTimeoutError(fmt.Errorf("deadline exceeded"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "INFERENCE_TIMEOUT", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 2, bpmnErr.Retries)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "INFERENCE_TIMEOUT", vars["errorCode"])
	assert.Equal(t, "INFERENCE_TIMEOUT", vars["originalErrorCode"])
	assert.Equal(t, "deadline exceeded", vars["errorDetails"])
}

func TestConvertToBPMNError_NonRetryable(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewMissingEntityError(fmt.Errorf("MISSING_ENTITY: LOWER_BOUND_NUMBER")))
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		remaining int32
		expected  int32
	}{
		{"retryable inference failure", NewInferenceFailedError(fmt.Errorf("503")), 5, 3},
		{"consumes one retry", NewInferenceFailedError(fmt.Errorf("503")), 3, 2},
		{"last retry thrown", NewQueryExecutionFailedError("cases_date", fmt.Errorf("locked")), 1, 0},
		{"no retries left", NewInferenceFailedError(fmt.Errorf("503")), 0, 0},
		{"business error", NewInvalidQueryError("entities: location is required"), 3, 0},
		{"unsupported intent", NewUnsupportedQueryError("no_match"), 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decide(tt.err, tt.remaining))
		})
	}
}

func TestDecide_RepeatedFailuresExhaustRetries(t *testing.T) {
	stdErr := NewInferenceFailedError(fmt.Errorf("503"))
	remaining := int32(3)

	var failures int
	for remaining > 0 && failures < 50 {
		remaining = Decide(stdErr, remaining)
		failures++
	}

	assert.Equal(t, int32(0), remaining)
	assert.Equal(t, 3, failures)
}

func TestNormalize(t *testing.T) {
	stdErr := NewSeedFailedError(fmt.Errorf("bad csv"))
	assert.Same(t, stdErr, Normalize(stdErr))

	wrapped := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "boom", wrapped.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "UNDERSTANDING", GetErrorCategory(ErrCodeInferenceFailed))
	assert.Equal(t, "UNDERSTANDING", GetErrorCategory(ErrCodeMissingEntity))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeSeedFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidQuery))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseConnectionFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
}

func TestStandardError_Error(t *testing.T) {
	assert.Equal(t, "StandardError[SEED_FAILED]: Seeding case statistics failed: open covid.csv: no such file",
		NewSeedFailedError(fmt.Errorf("open covid.csv: no such file")).Error())
	assert.Equal(t, "StandardError[INVALID_INPUT]: Invalid input",
		NewInvalidInputError("").Error())
}
