// Package registry provides read access to the reference tables a case points
// at: creditors, courts, bailiff offices, tax and regulator branches, users.
package registry

import (
	"context"

	"casedesk/internal/registry/models"
)

//go:generate mockgen -source=registry.go -destination=mocks/mocks.go -package=mocks Accessor

// Accessor is the read-only registry port. FindByID returns sentinel.ErrNotFound
// for unknown ids; FindByIDs omits them from the result map.
type Accessor interface {
	FindByID(ctx context.Context, kind models.Kind, id int64) (*models.Entity, error)
	FindByIDs(ctx context.Context, kind models.Kind, ids []int64) (map[int64]*models.Entity, error)
	Search(ctx context.Context, kind models.Kind, query string, page, pageSize int) (*models.Page, error)
}
