package store

import (
	"context"
	"fmt"
	"sync"

	"casedesk/internal/contract/models"
	"casedesk/internal/contract/schema"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

// InMemory keeps cases and their claims in maps. It backs tests and local
// development without a database and enforces the same uniqueness rules as
// the PostgreSQL schema.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	cases  map[int64]*models.CaseRow
	// claims preserve attachment order per case.
	claims map[int64][]*models.ClaimRow
}

// NewInMemory creates an empty in-memory case store.
func NewInMemory() *InMemory {
	return &InMemory{
		cases:  make(map[int64]*models.CaseRow),
		claims: make(map[int64][]*models.ClaimRow),
	}
}

func (s *InMemory) LoadCase(_ context.Context, id int64) (*models.CaseRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	return row.Clone(), nil
}

// LoadCaseForUpdate is LoadCase; row locking is the job of InMemoryTx.
func (s *InMemory) LoadCaseForUpdate(ctx context.Context, id int64) (*models.CaseRow, error) {
	return s.LoadCase(ctx, id)
}

func (s *InMemory) CreateCase(ctx context.Context, columns map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkColumns(columns); err != nil {
		return 0, err
	}
	if err := s.checkSNILS(0, columns); err != nil {
		return 0, err
	}

	s.nextID++
	row := &models.CaseRow{ID: s.nextID, Columns: make(map[string]any, len(columns)+1)}
	for k, v := range columns {
		row.Columns[k] = v
	}
	if _, ok := row.Columns[schema.FieldVersion]; !ok {
		row.Columns[schema.FieldVersion] = int64(1)
	}
	now := requestcontext.Now(ctx)
	for _, col := range []string{schema.FieldCreatedAt, schema.FieldUpdatedAt} {
		if _, ok := row.Columns[col]; !ok {
			row.Columns[col] = now
		}
	}
	s.cases[row.ID] = row
	return row.ID, nil
}

func (s *InMemory) SaveCase(_ context.Context, id int64, columns map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.cases[id]
	if !ok {
		return fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	if err := s.checkColumns(columns); err != nil {
		return err
	}
	if err := s.checkSNILS(id, columns); err != nil {
		return err
	}
	for k, v := range columns {
		row.Columns[k] = v
	}
	return nil
}

func (s *InMemory) LoadClaims(_ context.Context, caseID int64) ([]*models.ClaimRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ClaimRow, 0, len(s.claims[caseID]))
	for _, c := range s.claims[caseID] {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (s *InMemory) UpsertClaim(ctx context.Context, claim *models.ClaimRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[claim.CaseID]; !ok {
		return fmt.Errorf("case %d: %w", claim.CaseID, sentinel.ErrNotFound)
	}

	now := requestcontext.Now(ctx)
	stored := claim.Clone()
	stored.UpdatedAt = now
	list := s.claims[claim.CaseID]
	for i, existing := range list {
		if existing.CreditorID == claim.CreditorID {
			stored.CreatedAt = existing.CreatedAt
			list[i] = stored
			return nil
		}
	}
	stored.CreatedAt = now
	s.claims[claim.CaseID] = append(list, stored)
	return nil
}

// DeleteClaim removes one claim. Deleting a missing claim is a no-op.
func (s *InMemory) DeleteClaim(_ context.Context, caseID, creditorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.claims[caseID]
	for i, existing := range list {
		if existing.CreditorID == creditorID {
			s.claims[caseID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *InMemory) FindCaseIDBySNILS(_ context.Context, snils string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.snilsOwner(snils); ok {
		return id, nil
	}
	return 0, fmt.Errorf("snils: %w", sentinel.ErrNotFound)
}

// DeleteCreditorClaims drops every claim of a creditor across cases, the way
// the claims foreign key cascades when a creditor is removed.
func (s *InMemory) DeleteCreditorClaims(creditorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for caseID, list := range s.claims {
		kept := list[:0:0]
		for _, c := range list {
			if c.CreditorID != creditorID {
				kept = append(kept, c)
			}
		}
		s.claims[caseID] = kept
	}
}

func (s *InMemory) checkColumns(columns map[string]any) error {
	for col := range columns {
		if _, ok := schema.ByColumn(col); !ok {
			return fmt.Errorf("unknown case column %q", col)
		}
	}
	return nil
}

// checkSNILS mirrors the partial unique index on cases.snils.
func (s *InMemory) checkSNILS(id int64, columns map[string]any) error {
	snils, ok := columns[schema.FieldSNILS].(string)
	if !ok || snils == "" {
		return nil
	}
	if owner, taken := s.snilsOwner(snils); taken && owner != id {
		return fmt.Errorf("snils held by case %d: %w", owner, sentinel.ErrConflict)
	}
	return nil
}

func (s *InMemory) snilsOwner(snils string) (int64, bool) {
	for id, row := range s.cases {
		if v, ok := row.Columns[schema.FieldSNILS].(string); ok && v == snils {
			return id, true
		}
	}
	return 0, false
}

type memorySnapshot struct {
	nextID int64
	cases  map[int64]*models.CaseRow
	claims map[int64][]*models.ClaimRow
}

func (s *InMemory) snapshot() *memorySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &memorySnapshot{
		nextID: s.nextID,
		cases:  make(map[int64]*models.CaseRow, len(s.cases)),
		claims: make(map[int64][]*models.ClaimRow, len(s.claims)),
	}
	for id, row := range s.cases {
		snap.cases[id] = row.Clone()
	}
	for id, list := range s.claims {
		cp := make([]*models.ClaimRow, 0, len(list))
		for _, c := range list {
			cp = append(cp, c.Clone())
		}
		snap.claims[id] = cp
	}
	return snap
}

func (s *InMemory) restore(snap *memorySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.cases = snap.cases
	s.claims = snap.claims
}
