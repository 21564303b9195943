package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prepdeck/prepdeck/internal/domain/analytics"
	"github.com/prepdeck/prepdeck/internal/domain/pin"
	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

// Handler serves the REST API.
type Handler struct {
	threads   *thread.Service
	plans     *plan.Service
	analytics *analytics.Service
	pins      *pin.Service
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(threads *thread.Service, plans *plan.Service, analyticsService *analytics.Service, pins *pin.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		threads:   threads,
		plans:     plans,
		analytics: analyticsService,
		pins:      pins,
		logger:    logger,
	}
}

type startAssessmentRequest struct {
	Role       string `json:"role"`
	Company    string `json:"company,omitempty"`
	Background string `json:"background,omitempty"`
	ItemCount  int    `json:"item_count,omitempty"`
}

type submitAnswerRequest struct {
	ItemIndex int    `json:"item_index"`
	Answer    string `json:"answer"`
}

func (h *Handler) startAssessment(w http.ResponseWriter, r *http.Request) {
	ownerID := mustOwner(r)

	var req startAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, thread.ErrInvalidInput)
		return
	}

	result, err := h.threads.Start(r.Context(), ownerID, thread.StartRequest{
		Context: thread.Context{
			Role:       req.Role,
			Company:    req.Company,
			Background: req.Background,
		},
		ItemCount: req.ItemCount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) listAssessments(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.threads.ListByOwner(r.Context(), mustOwner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []thread.Summary{}
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) getAssessment(w http.ResponseWriter, r *http.Request) {
	status, err := h.threads.GetStatus(r.Context(), mustOwner(r), chi.URLParam(r, "threadID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.threads.GetHistory(r.Context(), mustOwner(r), chi.URLParam(r, "threadID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if history == nil {
		history = []thread.Message{}
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) getAggregate(w http.ResponseWriter, r *http.Request) {
	agg, err := h.threads.GetAggregate(r.Context(), mustOwner(r), chi.URLParam(r, "threadID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, agg)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, thread.ErrInvalidInput)
		return
	}

	result, err := h.threads.SubmitAnswer(r.Context(), mustOwner(r), chi.URLParam(r, "threadID"), req.ItemIndex, req.Answer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) deleteAssessment(w http.ResponseWriter, r *http.Request) {
	if err := h.threads.Delete(r.Context(), mustOwner(r), chi.URLParam(r, "threadID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.GetForThread(r.Context(), mustOwner(r), chi.URLParam(r, "threadID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) markStepComplete(w http.ResponseWriter, r *http.Request) {
	p, err := h.plans.MarkStepComplete(r.Context(), mustOwner(r), chi.URLParam(r, "planID"), chi.URLParam(r, "phaseID"), chi.URLParam(r, "stepID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summarize(r.Context(), mustOwner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) pinAssessment(w http.ResponseWriter, r *http.Request) {
	if err := h.pins.Pin(r.Context(), mustOwner(r), chi.URLParam(r, "threadID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unpinAssessment(w http.ResponseWriter, r *http.Request) {
	if err := h.pins.Unpin(r.Context(), mustOwner(r), chi.URLParam(r, "threadID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPinned(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.pins.ListPinned(r.Context(), mustOwner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []thread.Summary{}
	}
	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, thread.ErrThreadNotFound),
		errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, plan.ErrPhaseNotFound),
		errors.Is(err, plan.ErrStepNotFound),
		errors.Is(err, pin.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, thread.ErrForbidden),
		errors.Is(err, plan.ErrForbidden),
		errors.Is(err, pin.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, thread.ErrInvalidState),
		errors.Is(err, thread.ErrDuplicateAnswer),
		errors.Is(err, plan.ErrThreadNotCompleted),
		errors.Is(err, pin.ErrNotCompleted):
		status = http.StatusConflict
	case errors.Is(err, thread.ErrItemOutOfRange),
		errors.Is(err, thread.ErrInvalidInput),
		errors.Is(err, plan.ErrInvalidInput),
		errors.Is(err, pin.ErrInvalidInput),
		errors.Is(err, analytics.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func mustOwner(r *http.Request) string {
	ownerID, _ := OwnerFromContext(r.Context())
	return ownerID
}
