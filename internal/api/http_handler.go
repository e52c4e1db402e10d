package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-migrator/internal/domain"
	"catalog-migrator/internal/transfer"
)

// Runner executes a transfer run.
type Runner interface {
	Run(ctx context.Context, req transfer.Request) (*transfer.Report, error)
}

// Pinger checks the source database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// maxRunHistory is how many runs the handler remembers; older ones are
// forgotten as new runs start.
const maxRunHistory = 50

// RunState is the lifecycle state of a transfer run.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// Run is the externally visible state of a transfer run.
type Run struct {
	ID        string             `json:"run_id"`
	State     RunState           `json:"state"`
	Selector  domain.Selector    `json:"selector"`
	Type      domain.ProductType `json:"type"`
	StartedAt time.Time          `json:"started_at"`
	Error     string             `json:"error,omitempty"`
	Summary   *transfer.Summary  `json:"summary,omitempty"`
	Report    *transfer.Report   `json:"report,omitempty"`
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	runner   Runner
	db       Pinger
	validate *validator.Validate
	logger   *zap.Logger
	baseCtx  context.Context

	mu           sync.Mutex
	runs         map[string]*Run
	order        []string
	active       string
	historyLimit int
	wg           sync.WaitGroup
}

// NewHTTPHandler creates a new HTTPHandler. Runs started over HTTP outlive
// the request and are bound to baseCtx instead.
func NewHTTPHandler(baseCtx context.Context, runner Runner, db Pinger, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		runner:       runner,
		db:           db,
		validate:     validator.New(),
		logger:       logger,
		baseCtx:      baseCtx,
		runs:         make(map[string]*Run),
		historyLimit: maxRunHistory,
	}
}

// Wait blocks until every run started by the handler has finished.
func (h *HTTPHandler) Wait() {
	h.wg.Wait()
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

// snapshot copies a run so it can be encoded without holding the lock.
func (h *HTTPHandler) snapshot(id string) (Run, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runs[id]
	if !ok {
		return Run{}, false
	}
	return *r, true
}

// pruneLocked drops the oldest runs beyond historyLimit. The active run is
// always the newest, so it is never dropped. Callers hold h.mu.
func (h *HTTPHandler) pruneLocked() {
	for len(h.order) > h.historyLimit {
		delete(h.runs, h.order[0])
		h.order = h.order[1:]
	}
}

// --- Transfer Handlers ---

// TransferCreateInput defines the expected input for starting a transfer.
type TransferCreateInput struct {
	CategoryID int64  `json:"category_id" validate:"gte=0"`
	Limit      int    `json:"limit" validate:"gte=0"`
	Type       string `json:"type" validate:"required,oneof=simple variable"`
}

func (h *HTTPHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var input TransferCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	req := transfer.Request{
		RunID:    uuid.NewString(),
		Selector: domain.Selector{CategoryID: input.CategoryID, Limit: input.Limit},
		Type:     domain.ProductType(input.Type),
	}

	h.mu.Lock()
	if h.active != "" {
		active := h.active
		h.mu.Unlock()
		h.respondWithError(w, http.StatusConflict, "Transfer "+active+" is still running")
		return
	}
	run := &Run{
		ID:        req.RunID,
		State:     RunStateRunning,
		Selector:  req.Selector,
		Type:      req.Type,
		StartedAt: time.Now().UTC(),
	}
	h.runs[run.ID] = run
	h.order = append(h.order, run.ID)
	h.active = run.ID
	h.pruneLocked()
	accepted := *run
	h.wg.Add(1)
	h.mu.Unlock()

	go h.execute(req)

	h.respondWithJSON(w, http.StatusAccepted, accepted)
}

func (h *HTTPHandler) execute(req transfer.Request) {
	defer h.wg.Done()

	report, err := h.runner.Run(h.baseCtx, req)

	h.mu.Lock()
	defer h.mu.Unlock()
	run := h.runs[req.RunID]
	h.active = ""
	if err != nil {
		h.logger.Error("Transfer run failed", zap.String("run_id", req.RunID), zap.Error(err))
		run.State = RunStateFailed
		run.Error = err.Error()
		return
	}
	summary := report.Summary()
	run.State = RunStateCompleted
	run.Summary = &summary
	run.Report = report
}

func (h *HTTPHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	runs := make([]Run, 0, len(h.order))
	for i := len(h.order) - 1; i >= 0; i-- {
		run := *h.runs[h.order[i]]
		run.Report = nil // list view carries summaries only
		runs = append(runs, run)
	}
	h.mu.Unlock()

	h.respondWithJSON(w, http.StatusOK, runs)
}

func (h *HTTPHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	if _, err := uuid.Parse(runID); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid run ID format")
		return
	}

	run, ok := h.snapshot(runID)
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "transfer run not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, run)
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
		h.logger.Warn("Health check DB ping failed", zap.Error(err))
	}

	h.mu.Lock()
	active := h.active
	h.mu.Unlock()

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"database":   dbStatus,
		"active_run": active,
	})
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/healthz", h.Health)

	r.Route("/api/v1/transfers", func(r chi.Router) {
		r.Post("/", h.CreateTransfer)    // POST /api/v1/transfers
		r.Get("/", h.ListTransfers)      // GET /api/v1/transfers
		r.Get("/{runId}", h.GetTransfer) // GET /api/v1/transfers/{runId}
	})
}
