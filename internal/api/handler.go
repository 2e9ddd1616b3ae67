package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"opium-checker/internal/domain"
	"opium-checker/internal/observability"
	"opium-checker/internal/runner"
	"opium-checker/internal/storage"
)

// maxBodyBytes bounds checker request bodies.
const maxBodyBytes = 1 << 20

// Handler holds the dependencies for API handlers.
type Handler struct {
	Checker     runner.Evaluator
	Recorder    *runner.Recorder
	Decisions   storage.DecisionStore
	Evaluations storage.EvaluationStore
	Logger      *zap.Logger
}

// checkRequest is the body of POST /v1/checker.
type checkRequest struct {
	UserArgs   json.RawMessage   `json:"userArgs"`
	GelatoArgs json.RawMessage   `json:"gelatoArgs"`
	Connection domain.Connection `json:"connection"`
}

// NewRouter creates and configures the HTTP router with all API routes.
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/checker", h.HandleCheck).Methods(http.MethodPost)
	v1.HandleFunc("/decisions", h.HandleDecisionsList).Methods(http.MethodGet)
	v1.HandleFunc("/decisions/{runId}", h.HandleDecisionDetail).Methods(http.MethodGet)

	return r
}

// HandleHealth returns a simple health check response.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleCheck runs the checker for the posted task and returns its decision.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.Logger.Warn("bad json in checker request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ec, err := evaluationContext(req)
	if err != nil {
		h.Logger.Warn("invalid checker arguments", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, runErr := h.Checker.Run(r.Context(), ec)
	d := h.Recorder.Record(r.Context(), ec, report, runErr)
	if runErr != nil {
		status := http.StatusBadGateway
		if errors.Is(runErr, domain.ErrInvalidArgs) {
			status = http.StatusBadRequest
		}
		h.Logger.Error("checker run failed", zap.String("run_id", d.RunID), zap.Error(runErr))
		writeError(w, status, runErr.Error())
		return
	}

	w.Header().Set("X-Run-Id", d.RunID)
	writeJSON(w, http.StatusOK, report.Result)
}

// HandleDecisionsList returns the most recent decisions.
// Query param: ?limit=N (default 50).
func (h *Handler) HandleDecisionsList(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	decisions, err := h.Decisions.ListRecent(r.Context(), limit)
	if err != nil {
		h.Logger.Error("failed to list decisions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if decisions == nil {
		decisions = make([]*domain.Decision, 0)
	}
	writeJSON(w, http.StatusOK, decisions)
}

// decisionDetail is a decision plus the evaluations of its run.
type decisionDetail struct {
	*domain.Decision
	Evaluations []*domain.Evaluation `json:"evaluations"`
}

// HandleDecisionDetail returns one decision with its evaluations.
func (h *Handler) HandleDecisionDetail(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]

	d, err := h.Decisions.GetByRunID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "decision not found")
			return
		}
		h.Logger.Error("failed to get decision", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	evals, err := h.Evaluations.GetByRunID(r.Context(), runID)
	if err != nil {
		h.Logger.Error("failed to get evaluations", zap.String("run_id", runID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if evals == nil {
		evals = make([]*domain.Evaluation, 0)
	}
	writeJSON(w, http.StatusOK, decisionDetail{Decision: d, Evaluations: evals})
}

func evaluationContext(req checkRequest) (domain.EvaluationContext, error) {
	u, err := domain.DecodeUserArgs(req.UserArgs)
	if err != nil {
		return domain.EvaluationContext{}, err
	}
	g, err := domain.DecodeGelatoArgs(req.GelatoArgs)
	if err != nil {
		return domain.EvaluationContext{}, err
	}
	return domain.NewEvaluationContext(u, g, req.Connection)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
