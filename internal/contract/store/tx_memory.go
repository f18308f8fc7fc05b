package store

import (
	"context"
	"sync"
	"time"

	"casedesk/internal/contract/ports"
	dErrors "casedesk/pkg/domain-errors"
)

// defaultTxTimeout is the maximum duration for a case transaction.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx serializes transactions on an InMemory store with a coarse lock
// and restores a snapshot taken on entry when fn fails.
type InMemoryTx struct {
	mu      sync.Mutex
	store   *InMemory
	timeout time.Duration
}

// NewInMemoryTx wraps store in a transactional boundary.
func NewInMemoryTx(store *InMemory) *InMemoryTx {
	return &InMemoryTx{store: store}
}

// WithTimeout overrides the default transaction timeout.
func (t *InMemoryTx) WithTimeout(d time.Duration) *InMemoryTx {
	t.timeout = d
	return t
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.CaseStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	ctx, cancel := withTxTimeout(ctx, t.timeout)
	defer cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	snap := t.store.snapshot()
	if err := fn(ctx, t.store); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// withTxTimeout applies timeout unless ctx already carries a deadline.
func withTxTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
