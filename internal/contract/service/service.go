package service

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"casedesk/internal/contract/denormalize"
	"casedesk/internal/contract/metrics"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/normalize"
	"casedesk/internal/contract/ports"
	"casedesk/internal/contract/schema"
	"casedesk/internal/registry"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

const (
	outcomeCreated  = "created"
	outcomeChanged  = "changed"
	outcomeTouched  = "touched"
	outcomeRejected = "rejected"
	outcomeConflict = "conflict"
	outcomeFailed   = "failed"
)

var snilsPath = string(schema.StagePrimaryInfo) + "." + schema.FieldSNILS

// Service reads and edits case aggregates. Reads go straight to the store;
// edits are planned and applied inside one transaction.
type Service struct {
	store        ports.CaseStore
	tx           ports.CaseStoreTx
	normalizer   *normalize.Normalizer
	denormalizer *denormalize.Denormalizer
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. reg resolves reference names on read and
// validates references on write.
func New(store ports.CaseStore, tx ports.CaseStoreTx, reg registry.Accessor, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     tx,
		logger: slog.Default(),
		tracer: otel.Tracer("casedesk/internal/contract/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.normalizer = normalize.New(reg, normalize.WithLogger(s.logger), normalize.WithMetrics(s.metrics))
	s.denormalizer = denormalize.New(reg, denormalize.WithMetrics(s.metrics))
	return s
}

// GetCaseAggregate returns the stage-partitioned view of a case.
func (s *Service) GetCaseAggregate(ctx context.Context, id int64) (*models.Aggregate, error) {
	start := time.Now()
	defer s.metrics.ObserveGetCase(start)

	ctx, span := s.tracer.Start(ctx, "contract.GetCaseAggregate", trace.WithAttributes(attribute.Int64("case.id", id)))
	defer span.End()

	agg, err := s.load(ctx, s.store, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return agg, nil
}

func (s *Service) load(ctx context.Context, store ports.CaseStore, id int64) (*models.Aggregate, error) {
	row, err := store.LoadCase(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	claims, err := store.LoadClaims(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claims")
	}
	agg, err := s.normalizer.Normalize(ctx, row, claims)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assemble case")
	}
	return agg, nil
}

// ApplyCaseEdit persists patch onto case id and returns the stored result.
// id 0 creates a new case. Keys absent from patch keep their stored values.
// An edit that changes nothing still refreshes updated_at but keeps the
// version.
func (s *Service) ApplyCaseEdit(ctx context.Context, id int64, patch *models.Aggregate) (*models.Aggregate, error) {
	start := time.Now()
	defer s.metrics.ObserveApplyCaseEdit(start)

	ctx, span := s.tracer.Start(ctx, "contract.ApplyCaseEdit", trace.WithAttributes(attribute.Int64("case.id", id)))
	defer span.End()

	caseID := id
	var outcome string
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store ports.CaseStore) error {
		var (
			current *models.CaseRow
			claims  []*models.ClaimRow
			err     error
		)
		if id != 0 {
			current, err = store.LoadCaseForUpdate(ctx, id)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.NotFound("case not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
			}
			claims, err = store.LoadClaims(ctx, id)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claims")
			}
		}

		plan, err := s.denormalizer.Plan(ctx, current, claims, patch)
		if err != nil {
			return err
		}
		if err := s.checkSNILS(ctx, store, id, plan); err != nil {
			return err
		}

		caseID, outcome, err = s.writeCase(ctx, store, current, plan)
		if err != nil {
			return err
		}
		return s.writeClaims(ctx, store, caseID, plan)
	})
	if err != nil {
		s.recordFailure(ctx, id, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.IncrementCaseEdit(outcome)
	if outcome == outcomeCreated {
		s.metrics.IncrementCasesCreated()
	}
	span.SetAttributes(attribute.Int64("case.id", caseID), attribute.String("case.edit_outcome", outcome))
	s.logger.InfoContext(ctx, "case edit applied",
		"case_id", caseID,
		"outcome", outcome,
		"request_id", requestcontext.RequestID(ctx),
	)

	return s.load(ctx, s.store, caseID)
}

// checkSNILS rejects a SNILS already held by another case before the write
// reaches the unique index.
func (s *Service) checkSNILS(ctx context.Context, store ports.CaseStore, id int64, plan *models.WritePlan) error {
	snils, ok := plan.Columns[schema.FieldSNILS].(string)
	if !ok || snils == "" {
		return nil
	}
	owner, err := store.FindCaseIDBySNILS(ctx, snils)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check snils")
	case owner != id:
		return dErrors.Conflict(snilsPath, "snils is already registered to another case")
	}
	return nil
}

func (s *Service) writeCase(ctx context.Context, store ports.CaseStore, current *models.CaseRow, plan *models.WritePlan) (int64, string, error) {
	now := requestcontext.Now(ctx)
	columns := maps.Clone(plan.Columns)
	columns[schema.FieldUpdatedAt] = now

	if plan.Create {
		columns[schema.FieldVersion] = int64(1)
		columns[schema.FieldCreatedAt] = now
		if userID := requestcontext.UserID(ctx); userID > 0 {
			columns[schema.FieldAuthorID] = userID
		}
		id, err := store.CreateCase(ctx, columns)
		if err != nil {
			return 0, "", mapWriteError(err, "failed to create case")
		}
		return id, outcomeCreated, nil
	}

	outcome := outcomeTouched
	if plan.Changed() {
		columns[schema.FieldVersion] = current.Version() + 1
		outcome = outcomeChanged
	}
	if err := store.SaveCase(ctx, current.ID, columns); err != nil {
		return 0, "", mapWriteError(err, "failed to save case")
	}
	return current.ID, outcome, nil
}

func (s *Service) writeClaims(ctx context.Context, store ports.CaseStore, caseID int64, plan *models.WritePlan) error {
	for _, creditorID := range plan.ClaimDeletes {
		if err := store.DeleteClaim(ctx, caseID, creditorID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete claim")
		}
	}
	for _, claim := range plan.ClaimCreates {
		claim.CaseID = caseID
		if err := store.UpsertClaim(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create claim")
		}
	}
	for _, claim := range plan.ClaimUpdates {
		claim.CaseID = caseID
		if err := store.UpsertClaim(ctx, claim); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
		}
	}
	s.metrics.AddClaimWrites("delete", len(plan.ClaimDeletes))
	s.metrics.AddClaimWrites("create", len(plan.ClaimCreates))
	s.metrics.AddClaimWrites("update", len(plan.ClaimUpdates))
	return nil
}

func mapWriteError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Conflict(snilsPath, "snils is already registered to another case")
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.NotFound("case not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) recordFailure(ctx context.Context, id int64, err error) {
	outcome := outcomeFailed
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation:
		outcome = outcomeRejected
	case dErrors.CodeConflict:
		outcome = outcomeConflict
	}
	s.metrics.IncrementCaseEdit(outcome)

	attrs := []any{"case_id", id, "outcome", outcome, "request_id", requestcontext.RequestID(ctx)}
	if field := dErrors.FieldOf(err); field != "" {
		attrs = append(attrs, "field", field)
	}
	if outcome == outcomeFailed {
		s.logger.ErrorContext(ctx, "case edit failed", append(attrs, "error", err)...)
		return
	}
	s.logger.InfoContext(ctx, "case edit rejected", append(attrs, "reason", err.Error())...)
}
