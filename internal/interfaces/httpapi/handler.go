package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/topps-now-tracker/internal/domain/jobscheduler"
	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
	"github.com/riskibarqy/topps-now-tracker/internal/usecase"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
	maxTriggerBody   = 1 << 16
)

// RunHistory lists recorded executions and the names of runnable steps.
type RunHistory interface {
	RecentExecutions(ctx context.Context, limit int) ([]jobscheduler.Execution, error)
	StepNames() []string
}

// Dispatcher starts a run in the background. An empty step means the whole
// daily list.
type Dispatcher interface {
	Dispatch(step, trigger string) error
}

type Handler struct {
	runs       RunHistory
	dispatcher Dispatcher
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(runs RunHistory, dispatcher Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		runs:       runs,
		dispatcher: dispatcher,
		logger:     logger,
		validator:  validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRuns")
	defer span.End()

	limit, err := parseRunsLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.runs.RecentExecutions(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list runs failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]executionDTO, 0, len(items))
	for _, e := range items {
		out = append(out, executionToDTO(e))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

type triggerRunRequest struct {
	Step string `json:"step" validate:"omitempty,max=64"`
}

type triggerRunResponse struct {
	Step    string `json:"step"`
	Trigger string `json:"trigger"`
	Status  string `json:"status"`
}

func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TriggerRun")
	defer span.End()

	if h.dispatcher == nil {
		writeError(ctx, w, fmt.Errorf("%w: scheduler is not running", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeTriggerRequest(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if req.Step != "" && !slices.Contains(h.runs.StepNames(), req.Step) {
		writeError(ctx, w, fmt.Errorf("%w: unknown step %q", usecase.ErrInvalidInput, req.Step))
		return
	}

	if err := h.dispatcher.Dispatch(req.Step, "manual"); err != nil {
		h.logger.WarnContext(ctx, "trigger run rejected", "step", req.Step, "error", err)
		writeError(ctx, w, err)
		return
	}

	step := req.Step
	if step == "" {
		step = usecase.DailyJobName
	}
	h.logger.InfoContext(ctx, "run triggered", "step", step)
	writeSuccess(ctx, w, http.StatusAccepted, triggerRunResponse{Step: step, Trigger: "manual", Status: "accepted"})
}

func (h *Handler) decodeTriggerRequest(ctx context.Context, r *http.Request) (triggerRunRequest, error) {
	var req triggerRunRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, maxTriggerBody))
	if err != nil {
		return req, fmt.Errorf("%w: read body: %v", usecase.ErrInvalidInput, err)
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := sonic.Unmarshal(body, &req); err != nil {
			return req, fmt.Errorf("%w: invalid JSON body: %v", usecase.ErrInvalidInput, err)
		}
	}
	req.Step = strings.TrimSpace(req.Step)

	if err := h.validator.StructCtx(ctx, req); err != nil {
		return req, fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return req, nil
}

func parseRunsLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultRunsLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	return min(n, maxRunsLimit), nil
}

type stepDTO struct {
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	StartedAt string         `json:"started_at"`
	ElapsedMs int64          `json:"elapsed_ms"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type executionDTO struct {
	ID         string    `json:"id"`
	JobName    string    `json:"job_name"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  string    `json:"started_at"`
	FinishedAt string    `json:"finished_at,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	Steps      []stepDTO `json:"steps"`
}

func executionToDTO(e jobscheduler.Execution) executionDTO {
	out := executionDTO{
		ID:        e.ID,
		JobName:   e.JobName,
		Trigger:   e.Trigger,
		Status:    string(e.Status),
		DryRun:    e.DryRun,
		StartedAt: e.StartedAt.UTC().Format(time.RFC3339),
		TraceID:   e.TraceID,
		Steps:     make([]stepDTO, 0, len(e.Steps)),
	}
	if e.FinishedAt != nil {
		out.FinishedAt = e.FinishedAt.UTC().Format(time.RFC3339)
	}
	for _, s := range e.Steps {
		out.Steps = append(out.Steps, stepDTO{
			Name:      s.Name,
			Status:    string(s.Status),
			StartedAt: s.StartedAt.UTC().Format(time.RFC3339),
			ElapsedMs: s.ElapsedMs,
			Counts:    s.Counts,
			Error:     s.ErrorMessage,
		})
	}
	return out
}
