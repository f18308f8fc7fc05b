package registry

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"casedesk/internal/registry/models"
)

// Batch collects entity ids by kind so each kind is looked up once.
// The zero value is ready to use.
type Batch struct {
	ids  map[models.Kind][]int64
	seen map[models.Kind]map[int64]struct{}
}

// Add queues an id for lookup. Non-positive ids and repeats are ignored.
func (b *Batch) Add(kind models.Kind, id int64) {
	if id <= 0 {
		return
	}
	if b.ids == nil {
		b.ids = map[models.Kind][]int64{}
		b.seen = map[models.Kind]map[int64]struct{}{}
	}
	if b.seen[kind] == nil {
		b.seen[kind] = map[int64]struct{}{}
	}
	if _, ok := b.seen[kind][id]; ok {
		return
	}
	b.seen[kind][id] = struct{}{}
	b.ids[kind] = append(b.ids[kind], id)
}

// IDs returns the queued ids of one kind in insertion order.
func (b *Batch) IDs(kind models.Kind) []int64 {
	return b.ids[kind]
}

// Kinds returns the kinds with queued ids, in models.Kinds order.
func (b *Batch) Kinds() []models.Kind {
	var out []models.Kind
	for _, kind := range models.Kinds {
		if len(b.ids[kind]) > 0 {
			out = append(out, kind)
		}
	}
	return out
}

// Resolved maps kind and id to the entities found.
type Resolved map[models.Kind]map[int64]*models.Entity

// Get returns the entity for (kind, id) when it was found.
func (r Resolved) Get(kind models.Kind, id int64) (*models.Entity, bool) {
	e, ok := r[kind][id]
	return e, ok && e != nil
}

// Name returns the display name for (kind, id), or nil when unresolved.
func (r Resolved) Name(kind models.Kind, id int64) any {
	if e, ok := r.Get(kind, id); ok {
		return e.Name
	}
	return nil
}

// Resolve looks every queued kind up concurrently, one FindByIDs call per
// kind. The first lookup error cancels the rest and is returned.
func (b *Batch) Resolve(ctx context.Context, acc Accessor) (Resolved, error) {
	kinds := b.Kinds()
	results := make([]map[int64]*models.Entity, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			found, err := acc.FindByIDs(gctx, kind, b.ids[kind])
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(Resolved, len(kinds))
	for i, kind := range kinds {
		out[kind] = results[i]
	}
	return out, nil
}

// ResolvePartial is Resolve for read paths that degrade instead of failing:
// kinds whose lookup failed are reported in the error map and left out of
// the result.
func (b *Batch) ResolvePartial(ctx context.Context, acc Accessor) (Resolved, map[models.Kind]error) {
	var (
		mu     sync.Mutex
		out    = Resolved{}
		failed map[models.Kind]error
		wg     sync.WaitGroup
	)
	for _, kind := range b.Kinds() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := acc.FindByIDs(ctx, kind, b.ids[kind])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if failed == nil {
					failed = map[models.Kind]error{}
				}
				failed[kind] = err
				return
			}
			out[kind] = found
		}()
	}
	wg.Wait()
	return out, failed
}
