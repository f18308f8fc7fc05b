// Package normalize assembles the stage-partitioned view of a case from its
// stored row, its claim-ledger rows and the reference registries.
//
// Reading never fails because of stored data: unreadable values become null,
// claims whose creditor no longer exists are left out, and registry lookups
// that fail leave the affected names null. Each such anomaly is logged at
// debug level and counted.
package normalize

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"casedesk/internal/contract/coerce"
	"casedesk/internal/contract/metrics"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/schema"
	"casedesk/internal/registry"
	registrymodels "casedesk/internal/registry/models"
)

// Normalizer builds aggregates. It holds no per-case state and is safe for
// concurrent use.
type Normalizer struct {
	registry registry.Accessor
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for read anomalies.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Normalizer) {
		n.metrics = m
	}
}

// New creates a Normalizer resolving names through reg.
func New(reg registry.Accessor, opts ...Option) *Normalizer {
	n := &Normalizer{
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize builds the aggregate of one case. Every schema field of every
// stage is present in the result; missing values are null and collections
// are empty lists.
func (n *Normalizer) Normalize(ctx context.Context, row *models.CaseRow, claims []*models.ClaimRow) (*models.Aggregate, error) {
	if row == nil {
		return nil, errors.New("normalize: nil case row")
	}

	var batch registry.Batch
	for _, f := range schema.RefFields() {
		if id, ok := coerce.Int(row.Get(f.Column)).(int64); ok {
			batch.Add(f.Ref, id)
		}
	}
	for _, c := range claims {
		batch.Add(registrymodels.KindCreditor, c.CreditorID)
	}
	for _, kind := range batch.Kinds() {
		n.metrics.IncrementReferenceLookup(string(kind))
	}

	resolved, failed := batch.ResolvePartial(ctx, n.registry)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for kind, err := range failed {
		n.logger.DebugContext(ctx, "reference lookup failed, names left empty",
			"case_id", row.ID,
			"kind", string(kind),
			"error", err,
		)
	}

	live := n.liveClaims(ctx, row.ID, claims, resolved, failed)

	agg := &models.Aggregate{}
	for _, stage := range schema.Stages {
		section := models.Section{}
		for _, f := range schema.StageFields(stage) {
			section[f.Name] = n.fieldValue(ctx, f, row, live, resolved)
		}
		agg.SetSection(stage, section)
	}
	return agg, nil
}

func (n *Normalizer) fieldValue(ctx context.Context, f schema.Field, row *models.CaseRow, live []*models.ClaimRow, resolved registry.Resolved) any {
	switch f.Source {
	case schema.SourceName:
		id, ok := coerce.Int(row.Get(f.RefField)).(int64)
		if !ok {
			return nil
		}
		return resolved.Name(f.Ref, id)
	case schema.SourceLedger:
		if f.Type == schema.TypeCreditorIDs {
			ids := make([]int64, 0, len(live))
			for _, c := range live {
				ids = append(ids, c.CreditorID)
			}
			return ids
		}
		records := make([]map[string]any, 0, len(live))
		for _, c := range live {
			records = append(records, claimRecord(c, resolved))
		}
		return records
	}

	if f.Name == schema.FieldID {
		return row.ID
	}
	raw := row.Get(f.Column)
	value := coerce.Lenient(f, raw)
	if raw != nil && value == nil {
		n.logger.DebugContext(ctx, "stored value unreadable, shown as null",
			"case_id", row.ID,
			"column", f.Column,
			"type", f.Type.String(),
		)
		n.metrics.IncrementUnreadableValue(f.Column)
	}
	return value
}

// liveClaims drops claims whose creditor is gone from the registry and keeps
// the first claim per creditor. When the creditor lookup itself failed, no
// claim is considered dangling.
func (n *Normalizer) liveClaims(ctx context.Context, caseID int64, claims []*models.ClaimRow, resolved registry.Resolved, failed map[registrymodels.Kind]error) []*models.ClaimRow {
	_, lookupFailed := failed[registrymodels.KindCreditor]
	seen := make(map[int64]struct{}, len(claims))
	live := make([]*models.ClaimRow, 0, len(claims))
	for _, c := range claims {
		if _, dup := seen[c.CreditorID]; dup {
			continue
		}
		if !lookupFailed {
			if _, ok := resolved.Get(registrymodels.KindCreditor, c.CreditorID); !ok {
				n.logger.DebugContext(ctx, "dropping claim of unknown creditor",
					"case_id", caseID,
					"creditor_id", c.CreditorID,
				)
				n.metrics.IncrementDanglingClaims()
				continue
			}
		}
		seen[c.CreditorID] = struct{}{}
		live = append(live, c)
	}
	return live
}

func claimRecord(c *models.ClaimRow, resolved registry.Resolved) map[string]any {
	record := make(map[string]any, len(schema.ClaimFields))
	for _, f := range schema.ClaimFields {
		switch f.Source {
		case schema.SourceColumn:
			record[f.Name] = coerce.Lenient(f, c.Value(f.Column))
		case schema.SourceName:
			record[f.Name] = resolved.Name(f.Ref, c.CreditorID)
		case schema.SourceTotal:
			record[f.Name] = ClaimTotal(c)
		}
	}
	return record
}

// ClaimTotal sums the six claim amounts with two fraction digits. Amounts
// that are null or not decimal count as zero.
func ClaimTotal(c *models.ClaimRow) string {
	total := decimal.Zero
	for _, column := range schema.ClaimAmountFields {
		s, ok := coerce.CanonicalMoney(c.Value(column)).(string)
		if !ok {
			continue
		}
		if d, err := decimal.NewFromString(s); err == nil {
			total = total.Add(d)
		}
	}
	return total.StringFixed(2)
}
