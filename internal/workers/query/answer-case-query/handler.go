// internal/workers/query/answer-case-query/handler.go
package answercasequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/o-richard/covidvisor/internal/casestats"
	apperrors "github.com/o-richard/covidvisor/internal/common/errors"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/common/observability"
	"github.com/o-richard/covidvisor/internal/models"
)

const (
	TaskType = "answer-case-query"
)

var ErrInvalidInput = errors.New("INVALID_INPUT")

type Handler struct {
	config     *Config
	engine     *casestats.Engine
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, engine *casestats.Engine, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     engine,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)), "", start)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err, input.Intent, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}
	if input.Intent == "" {
		return nil, fmt.Errorf("%w: intent is required", ErrInvalidInput)
	}

	start := time.Now()
	answer, err := h.engine.Answer(ctx, models.Query{
		Intent:   models.Intent(input.Intent),
		Entities: input.Entities,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		Answer:             answer.Text,
		Custom:             answer.Custom,
		QueryExecutionTime: time.Since(start).Milliseconds(),
	}, nil
}

func toStandardError(err error, intent string) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, casestats.ErrInvalidQuery):
		return apperrors.NewInvalidQueryError(err.Error())
	case errors.Is(err, casestats.ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(intent)
	case errors.Is(err, casestats.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError(intent, err)
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
		h.failJob(ctx, client, job, err, "", start)
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
		"custom": output.Custom,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, intent string, start time.Time) {
	h.errHandler.HandleJobError(ctx, client, job, toStandardError(err, intent))
	h.obs.RecordJob(ctx, TaskType, observability.StatusFailed, time.Since(start))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
