package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"casedesk/internal/registry/models"
	"casedesk/pkg/platform/sentinel"
)

// InMemory keeps reference entities in maps keyed by kind. It backs tests and
// local development without a database.
type InMemory struct {
	mu       sync.RWMutex
	entities map[models.Kind]map[int64]*models.Entity
	lookups  int
}

// NewInMemory creates an empty in-memory registry.
func NewInMemory() *InMemory {
	return &InMemory{entities: make(map[models.Kind]map[int64]*models.Entity)}
}

// Put inserts or replaces an entity.
func (s *InMemory) Put(entity *models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.entities[entity.Kind]
	if !ok {
		byID = make(map[int64]*models.Entity)
		s.entities[entity.Kind] = byID
	}
	cp := *entity
	byID[entity.ID] = &cp
}

// Delete removes an entity. Deleting an unknown entity is a no-op.
func (s *InMemory) Delete(kind models.Kind, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities[kind], id)
}

// Lookups returns how many FindByID/FindByIDs calls were served.
func (s *InMemory) Lookups() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups
}

func (s *InMemory) FindByID(_ context.Context, kind models.Kind, id int64) (*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if entity, ok := s.entities[kind][id]; ok {
		cp := *entity
		return &cp, nil
	}
	return nil, fmt.Errorf("%s %d: %w", kind, id, sentinel.ErrNotFound)
}

func (s *InMemory) FindByIDs(_ context.Context, kind models.Kind, ids []int64) (map[int64]*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	found := make(map[int64]*models.Entity, len(ids))
	for _, id := range ids {
		if entity, ok := s.entities[kind][id]; ok {
			cp := *entity
			found[id] = &cp
		}
	}
	return found, nil
}

func (s *InMemory) Search(_ context.Context, kind models.Kind, query string, page, pageSize int) (*models.Page, error) {
	page, pageSize = models.ClampPage(page, pageSize)
	needle := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	matches := make([]*models.Entity, 0)
	for _, entity := range s.entities[kind] {
		if needle == "" || strings.Contains(strings.ToLower(entity.Name), needle) {
			cp := *entity
			matches = append(matches, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].ID < matches[j].ID
	})

	result := &models.Page{Items: []*models.Entity{}, Total: len(matches), Page: page, PageSize: pageSize}
	start := (page - 1) * pageSize
	if start >= len(matches) {
		return result, nil
	}
	end := min(start+pageSize, len(matches))
	result.Items = matches[start:end]
	return result, nil
}
