// Package ports declares the persistence boundary of the contract module.
package ports

import (
	"context"

	"casedesk/internal/contract/models"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks CaseStore,CaseStoreTx

// CaseStore persists case rows and their claim-ledger rows. Methods return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict for
// uniqueness violations.
type CaseStore interface {
	LoadCase(ctx context.Context, id int64) (*models.CaseRow, error)
	// LoadCaseForUpdate reads the row and locks it until the surrounding
	// transaction ends.
	LoadCaseForUpdate(ctx context.Context, id int64) (*models.CaseRow, error)
	CreateCase(ctx context.Context, columns map[string]any) (int64, error)
	SaveCase(ctx context.Context, id int64, columns map[string]any) error
	LoadClaims(ctx context.Context, caseID int64) ([]*models.ClaimRow, error)
	UpsertClaim(ctx context.Context, claim *models.ClaimRow) error
	DeleteClaim(ctx context.Context, caseID, creditorID int64) error
	// FindCaseIDBySNILS returns the case holding a SNILS (eleven digits).
	FindCaseIDBySNILS(ctx context.Context, snils string) (int64, error)
}

// CaseStoreTx runs fn inside one transaction. A non-nil error from fn rolls
// every write back.
type CaseStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store CaseStore) error) error
}
