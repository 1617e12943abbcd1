// internal/workers/query/understand-case-query/handler.go
package understandcasequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/o-richard/covidvisor/internal/common/errors"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/observability"
	"github.com/o-richard/covidvisor/internal/common/validation"
	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/understanding"
)

const (
	TaskType = "understand-case-query"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
	ErrQueryTooLong = errors.New("QUERY_TOO_LONG")
	variablesSchema = validation.MustCompile(inputSchema)
)

type Handler struct {
	config     *Config
	pipeline   *understanding.Pipeline
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, pipeline *understanding.Pipeline, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		pipeline:   pipeline,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func parseInput(variables string) (*Input, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := variablesSchema.Validate(doc)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	return &Input{Query: doc["query"].(string)}, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if h.config.MaxQueryLength > 0 && len(input.Query) > h.config.MaxQueryLength {
		return nil, fmt.Errorf("%w: %d characters", ErrQueryTooLong, len(input.Query))
	}

	start := time.Now()
	result, err := h.pipeline.Process(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	return &Output{
		Intent:         result.Intent,
		Entities:       result.Entities,
		Answerable:     result.Intent.Answerable(),
		ProcessingTime: time.Since(start).Milliseconds(),
	}, nil
}

// toStandardError maps pipeline failures onto job error codes.
func toStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrQueryTooLong):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, understanding.ErrMissingEntity):
		return apperrors.NewMissingEntityError(err)
	case errors.Is(err, inference.ErrInferenceTimeout):
		return apperrors.NewInferenceTimeoutError(err)
	case errors.Is(err, inference.ErrInferenceFailed):
		return apperrors.NewInferenceFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		h.failJob(ctx, client, job, err, start)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		h.obs.RecordJob(ctx, TaskType, observability.StatusFailed, time.Since(start))
		return
	}

	h.obs.RecordJob(ctx, TaskType, observability.StatusCompleted, time.Since(start))
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"intent": output.Intent,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	h.errHandler.HandleJobError(ctx, client, job, toStandardError(err))
	h.obs.RecordJob(ctx, TaskType, observability.StatusFailed, time.Since(start))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
