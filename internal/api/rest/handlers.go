package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domainErrors "github.com/auditgate/expense-fraud-engine/internal/domain/errors"
	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
	"github.com/auditgate/expense-fraud-engine/internal/history"
	"github.com/auditgate/expense-fraud-engine/internal/service/fraud"
)

// maxBatchSize bounds one batch scoring request
const maxBatchSize = 100

// Handler exposes the scoring engine over HTTP
type Handler struct {
	fraud    fraud.Service
	store    history.Store
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates the REST handler set
func NewHandler(svc fraud.Service, store history.Store, logger *zap.Logger) *Handler {
	return &Handler{
		fraud:    svc,
		store:    store,
		validate: validator.New(),
		logger:   logger,
	}
}

type batchRequest struct {
	Expenses []expense.Input `json:"expenses"`
}

type batchItem struct {
	ExpenseID  string                 `json:"expense_id"`
	Assessment *fraud.FraudAssessment `json:"assessment,omitempty"`
	Error      *errorBody             `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

// scoreExpense scores one submission against the current history snapshot
// and records it afterwards, so an expense never matches itself.
func (h *Handler) scoreExpense(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in expense.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, domainErrors.NewValidationError("INVALID_BODY", "Request body must be valid JSON").WithCause(err))
		return
	}
	if err := h.validate.Struct(in); err != nil {
		h.writeError(w, domainErrors.NewValidationError("MISSING_FIELDS", "vendor, amount, date and category are required").WithCause(err))
		return
	}

	e := expense.New(in)

	snapshot, err := h.store.Recent(r.Context(), 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	assessment, err := h.fraud.ScoreExpense(r.Context(), e, snapshot)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Recording is best effort: the verdict is already computed, a degraded
	// history only weakens future frequency signals.
	if err := h.store.Add(r.Context(), e); err != nil {
		h.logger.Warn("recording scored expense failed",
			zap.String("expense_id", e.ID.String()),
			zap.Error(err))
	}

	observeScoring(assessment.Decision, time.Since(start))
	h.writeJSON(w, http.StatusOK, assessment)
}

// scoreBatch scores every expense against the same snapshot; entries do not
// see one another, and one bad entry fails alone.
func (h *Handler) scoreBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domainErrors.NewValidationError("INVALID_BODY", "Request body must be valid JSON").WithCause(err))
		return
	}
	if len(req.Expenses) == 0 {
		h.writeError(w, domainErrors.NewValidationError("EMPTY_BATCH", "Batch must contain at least one expense"))
		return
	}
	if len(req.Expenses) > maxBatchSize {
		h.writeError(w, domainErrors.NewValidationError("BATCH_TOO_LARGE", "Batch exceeds the maximum size"))
		return
	}

	items := make([]batchItem, len(req.Expenses))
	batch := make([]*expense.Expense, len(req.Expenses))
	for i, in := range req.Expenses {
		if err := h.validate.Struct(in); err != nil {
			items[i].Error = &errorBody{
				Code:    "MISSING_FIELDS",
				Message: "vendor, amount, date and category are required",
			}
			continue
		}
		batch[i] = expense.New(in)
	}

	snapshot, err := h.store.Recent(r.Context(), 0)
	if err != nil {
		h.writeError(w, err)
		return
	}

	results := h.fraud.ScoreBatch(r.Context(), batch, snapshot)
	for i, res := range results {
		if items[i].Error != nil {
			continue
		}
		items[i].ExpenseID = batch[i].ID.String()
		if res.Err != nil {
			items[i].Error = &errorBody{Code: "SCORING_FAILED", Message: res.Err.Error()}
			continue
		}
		items[i].Assessment = res.Assessment
		observeScoring(res.Assessment.Decision, time.Since(start))

		if err := h.store.Add(r.Context(), batch[i]); err != nil {
			h.logger.Warn("recording scored expense failed",
				zap.String("expense_id", batch[i].ID.String()),
				zap.Error(err))
		}
	}

	h.writeJSON(w, http.StatusOK, batchResponse{Results: items})
}

// healthz verifies the history store is reachable
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Len(r.Context()); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
