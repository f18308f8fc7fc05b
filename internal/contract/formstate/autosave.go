package formstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"casedesk/internal/contract/models"
)

//go:generate mockgen -source=autosave.go -destination=mocks/mocks.go -package=mocks Saver

// Saver loads and persists case aggregates. The case service implements it.
type Saver interface {
	GetCaseAggregate(ctx context.Context, id int64) (*models.Aggregate, error)
	ApplyCaseEdit(ctx context.Context, id int64, patch *models.Aggregate) (*models.Aggregate, error)
}

// ErrNotLoaded is returned when a form is edited before it was loaded.
var ErrNotLoaded = errors.New("form state not loaded")

// Autosaver owns the editing form of one case and saves it only when it
// changed since the last successful save.
type Autosaver struct {
	mu         sync.Mutex
	saver      Saver
	caseID     int64
	form       *models.FormState
	reconciler Reconciler
	logger     *slog.Logger
}

// AutosaverOption configures an Autosaver.
type AutosaverOption func(*Autosaver)

// WithLogger sets the logger used for save outcomes.
func WithLogger(logger *slog.Logger) AutosaverOption {
	return func(a *Autosaver) {
		a.logger = logger
	}
}

// NewAutosaver binds a form to one case. caseID 0 starts a new case from the
// default form; the first successful save creates it.
func NewAutosaver(saver Saver, caseID int64, opts ...AutosaverOption) *Autosaver {
	a := &Autosaver{
		saver:  saver,
		caseID: caseID,
		logger: slog.Default(),
	}
	if caseID == 0 {
		a.form = DefaultFormState()
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CaseID returns the case being edited, 0 until a new case is first saved.
func (a *Autosaver) CaseID() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.caseID
}

// Load seeds the form from the stored case and marks it saved.
func (a *Autosaver) Load(ctx context.Context) (*models.FormState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.caseID == 0 {
		return a.form, nil
	}
	agg, err := a.saver.GetCaseAggregate(ctx, a.caseID)
	if err != nil {
		return nil, err
	}
	return a.seed(agg)
}

// Edit applies fn to the form under the autosaver's lock.
func (a *Autosaver) Edit(fn func(f *models.FormState)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.form == nil {
		return ErrNotLoaded
	}
	fn(a.form)
	return nil
}

// Dirty reports whether the form has unsaved changes.
func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form != nil && a.reconciler.IsDirty(a.form)
}

// Save persists the form when it is dirty and reports whether a save
// happened. After a save the form is re-seeded from the stored case.
func (a *Autosaver) Save(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.form == nil {
		return false, ErrNotLoaded
	}
	if !a.reconciler.IsDirty(a.form) {
		return false, nil
	}

	agg, err := a.saver.ApplyCaseEdit(ctx, a.caseID, FromFormState(a.form))
	if err != nil {
		a.logger.WarnContext(ctx, "autosave failed", "case_id", a.caseID, "error", err)
		return false, err
	}
	if a.caseID == 0 {
		a.caseID = agg.ID()
	}
	if _, err := a.seed(agg); err != nil {
		return true, err
	}
	a.logger.DebugContext(ctx, "autosaved case", "case_id", a.caseID)
	return true, nil
}

func (a *Autosaver) seed(agg *models.Aggregate) (*models.FormState, error) {
	a.form = ToFormState(agg, DefaultFormState())
	if err := a.reconciler.MarkSaved(a.form); err != nil {
		return nil, err
	}
	return a.form, nil
}
