package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"casedesk/internal/contract/models"
	"casedesk/internal/platform/metrics"
	"casedesk/internal/platform/middleware"
	registrymodels "casedesk/internal/registry/models"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/httputil"
	"casedesk/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,ReferenceSearcher

// maxBodyBytes bounds an edit payload.
const maxBodyBytes = 1 << 20

// Service defines the case operations exposed over HTTP.
type Service interface {
	GetCaseAggregate(ctx context.Context, id int64) (*models.Aggregate, error)
	ApplyCaseEdit(ctx context.Context, id int64, patch *models.Aggregate) (*models.Aggregate, error)
}

// ReferenceSearcher lists reference entities for pickers.
type ReferenceSearcher interface {
	Search(ctx context.Context, kind registrymodels.Kind, query string, page, pageSize int) (*registrymodels.Page, error)
}

// Handler serves the case and reference endpoints.
type Handler struct {
	logger     *slog.Logger
	cases      Service
	references ReferenceSearcher
	metrics    *metrics.Metrics
	timeout    time.Duration
}

// New creates a new case Handler.
func New(cases Service, references ReferenceSearcher, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:     logger,
		cases:      cases,
		references: references,
		metrics:    m,
		timeout:    30 * time.Second,
	}
}

// WithTimeout overrides the per-request deadline. Values under a second are
// ignored.
func (h *Handler) WithTimeout(d time.Duration) *Handler {
	if d >= time.Second {
		h.timeout = d
	}
	return h
}

// Register registers the case routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(h.logger, h.metrics))
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.RequestTime)
	router.Use(middleware.Timeout(h.timeout))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.ActingUser(h.logger))

	router.Get("/contracts/{id}", h.handleGetCase)
	router.Put("/contracts/{id}", h.handleUpdateCase)
	router.Post("/contracts", h.handleCreateCase)
	router.Get("/references/{kind}", h.handleSearchReferences)

	r.Mount("/", router)
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}

	agg, err := h.cases.GetCaseAggregate(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to load case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agg)
}

func (h *Handler) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.caseID(w, r)
	if !ok {
		return
	}
	h.applyEdit(w, r, id, http.StatusOK)
}

func (h *Handler) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	h.applyEdit(w, r, 0, http.StatusCreated)
}

func (h *Handler) applyEdit(w http.ResponseWriter, r *http.Request, id int64, status int) {
	ctx := r.Context()
	patch, err := decodeAggregate(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid case edit request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	agg, err := h.cases.ApplyCaseEdit(ctx, id, patch)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to apply case edit", err)
		return
	}
	httputil.WriteJSON(w, status, agg)
}

func (h *Handler) handleSearchReferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := registrymodels.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, err.Error()))
		return
	}

	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		httputil.WriteError(w, dErrors.NewField(dErrors.CodeBadRequest, "page", "must be an integer"))
		return
	}
	pageSize, err := optionalInt(q.Get("page_size"))
	if err != nil {
		httputil.WriteError(w, dErrors.NewField(dErrors.CodeBadRequest, "page_size", "must be an integer"))
		return
	}

	result, err := h.references.Search(ctx, kind, q.Get("q"), page, pageSize)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to search references", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) caseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.NewField(dErrors.CodeBadRequest, "id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// writeServiceError logs unexpected failures and passes coded errors through.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}
	httputil.WriteError(w, err)
}

// decodeAggregate reads an edit payload. Numbers stay json.Number so large
// ids and amounts keep their exact text; unknown stages are rejected.
func decodeAggregate(r *http.Request) (*models.Aggregate, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var patch models.Aggregate
	if err := dec.Decode(&patch); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the JSON object")
	}
	return &patch, nil
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
