// Package denormalize turns an edited case aggregate into the row writes
// that persist it: changed case columns plus claim-ledger creates, updates
// and deletes.
//
// Writes are strict. Every value must coerce to its field type and every
// reference must exist, otherwise the whole edit is rejected before anything
// is written. Keys absent from the payload are left untouched and an
// explicit null clears the field.
package denormalize

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"casedesk/internal/contract/coerce"
	"casedesk/internal/contract/metrics"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/schema"
	"casedesk/internal/registry"
	registrymodels "casedesk/internal/registry/models"
	dErrors "casedesk/pkg/domain-errors"
)

// Denormalizer plans writes. It holds no per-case state and is safe for
// concurrent use.
type Denormalizer struct {
	registry registry.Accessor
	metrics  *metrics.Metrics
}

// Option configures a Denormalizer.
type Option func(*Denormalizer)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Denormalizer) {
		d.metrics = m
	}
}

// New creates a Denormalizer validating references through reg.
func New(reg registry.Accessor, opts ...Option) *Denormalizer {
	d := &Denormalizer{registry: reg}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type refCheck struct {
	kind registrymodels.Kind
	id   int64
	path string
}

type claimPatch struct {
	index      int
	creditorID int64
	values     map[string]any
}

type planner struct {
	current        *models.CaseRow
	plan           *models.WritePlan
	refs           []refCheck
	desired        []int64
	creditorsGiven bool
	claimPatches   []claimPatch
	stored         map[int64]*models.ClaimRow
}

// Plan computes the writes that apply patch to a case. current is nil when
// the case does not exist yet; claims are its current claim-ledger rows.
func (d *Denormalizer) Plan(ctx context.Context, current *models.CaseRow, claims []*models.ClaimRow, patch *models.Aggregate) (*models.WritePlan, error) {
	p := &planner{
		current: current,
		plan:    &models.WritePlan{Create: current == nil, Columns: map[string]any{}},
		stored:  make(map[int64]*models.ClaimRow, len(claims)),
	}
	for _, c := range claims {
		if _, dup := p.stored[c.CreditorID]; !dup {
			p.stored[c.CreditorID] = c
		}
	}
	if patch == nil {
		patch = &models.Aggregate{}
	}

	for _, stage := range schema.Stages {
		section := patch.Section(stage)
		keys := make([]string, 0, len(section))
		for key := range section {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			if err := p.field(stage, key, section[key]); err != nil {
				return nil, err
			}
		}
	}

	if p.plan.Create {
		for _, f := range schema.Fields() {
			if f.Required && p.plan.Columns[f.Column] == nil {
				return nil, dErrors.Validation(f.Path(), "is required")
			}
		}
	}

	if err := d.checkRefs(ctx, p.refs); err != nil {
		return nil, err
	}
	if err := p.diffClaims(claims); err != nil {
		return nil, err
	}
	return p.plan, nil
}

func (p *planner) field(stage schema.Stage, key string, raw any) error {
	f, ok := schema.Lookup(stage, key)
	if !ok {
		return dErrors.Validation(string(stage)+"."+key, "unknown field")
	}
	if f.Name == schema.FieldVersion {
		return p.checkVersion(f, raw)
	}
	if !f.Writable() {
		return nil
	}

	switch {
	case f.Type == schema.TypeCreditorIDs:
		ids, err := coerce.StrictCreditors(raw)
		if err != nil {
			return validation(f.Path(), err)
		}
		p.desired = ids
		p.creditorsGiven = true
		for i, id := range ids {
			p.refs = append(p.refs, refCheck{kind: registrymodels.KindCreditor, id: id, path: fmt.Sprintf("%s[%d]", f.Path(), i)})
		}
		return nil
	case f.Name == schema.FieldClaims:
		patches, err := p.parseClaims(f, raw)
		if err != nil {
			return err
		}
		p.claimPatches = patches
		return nil
	}

	// A value resubmitted as it was read is not an edit, even when the stored
	// value predates today's validation rules.
	if p.current != nil && coerce.Unchanged(f, p.current.Get(f.Column), raw) {
		return nil
	}

	value, err := coerce.Strict(f, raw)
	if err != nil {
		return validation(f.Path(), err)
	}
	if f.Required && value == nil {
		return dErrors.Validation(f.Path(), "is required")
	}
	if p.current != nil && coerce.Equal(f, p.current.Get(f.Column), value) {
		return nil
	}
	if p.plan.Create && value == nil {
		return nil
	}
	p.plan.Columns[f.Column] = value
	if id, isRef := value.(int64); isRef && f.Type == schema.TypeRef {
		p.refs = append(p.refs, refCheck{kind: f.Ref, id: id, path: f.Path()})
	}
	return nil
}

// checkVersion rejects edits prepared against an older version of the case.
// A payload without a version is not checked.
func (p *planner) checkVersion(f schema.Field, raw any) error {
	if p.current == nil || raw == nil {
		return nil
	}
	v, err := coerce.Strict(f, raw)
	if err != nil {
		return validation(f.Path(), err)
	}
	if version, ok := v.(int64); ok && version != p.current.Version() {
		return dErrors.Conflict(f.Path(), fmt.Sprintf("case was modified: version %d is current, edit is based on %d", p.current.Version(), version))
	}
	return nil
}

func (p *planner) parseClaims(f schema.Field, raw any) ([]claimPatch, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if typed, isTyped := raw.([]map[string]any); isTyped {
			for _, m := range typed {
				items = append(items, m)
			}
		} else {
			return nil, dErrors.Validation(f.Path(), "must be a list")
		}
	}

	seen := map[int64]struct{}{}
	patches := make([]claimPatch, 0, len(items))
	for i, item := range items {
		elemPath := fmt.Sprintf("%s[%d]", f.Path(), i)
		values, err := coerce.StrictRecord(p.changedClaimValues(item), f.Elem)
		if err != nil {
			return nil, validation(elemPath, err)
		}
		creditorID, ok := values[schema.ClaimCreditorID].(int64)
		if !ok {
			return nil, dErrors.Validation(elemPath+"."+schema.ClaimCreditorID, "is required")
		}
		if _, dup := seen[creditorID]; dup {
			return nil, dErrors.Validation(elemPath+"."+schema.ClaimCreditorID, "duplicate claim for creditor")
		}
		seen[creditorID] = struct{}{}
		delete(values, schema.ClaimCreditorID)
		patches = append(patches, claimPatch{index: i, creditorID: creditorID, values: values})
	}
	return patches, nil
}

// checkRefs verifies that every referenced entity exists, one batched lookup
// per kind.
func (d *Denormalizer) checkRefs(ctx context.Context, checks []refCheck) error {
	if len(checks) == 0 {
		return nil
	}
	var batch registry.Batch
	for _, c := range checks {
		batch.Add(c.kind, c.id)
	}
	for _, kind := range batch.Kinds() {
		d.metrics.IncrementReferenceLookup(string(kind))
	}
	resolved, err := batch.Resolve(ctx, d.registry)
	if err != nil {
		return fmt.Errorf("validate references: %w", err)
	}
	for _, c := range checks {
		if _, ok := resolved.Get(c.kind, c.id); !ok {
			return dErrors.Validation(c.path, fmt.Sprintf("unknown %s %d", c.kind, c.id))
		}
	}
	return nil
}

// diffClaims reconciles the claim ledger with the desired creditor list:
// detached creditors lose their claim, new creditors get a zero-valued
// claim, retained claims are rewritten only when their values changed.
func (p *planner) diffClaims(claims []*models.ClaimRow) error {
	existing := make(map[int64]*models.ClaimRow, len(claims))
	var existingIDs []int64
	for _, c := range claims {
		if _, dup := existing[c.CreditorID]; dup {
			continue
		}
		existing[c.CreditorID] = c
		existingIDs = append(existingIDs, c.CreditorID)
	}

	desired := p.desired
	if !p.creditorsGiven {
		desired = existingIDs
	}
	wanted := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		wanted[id] = struct{}{}
	}

	patches := make(map[int64]claimPatch, len(p.claimPatches))
	for _, cp := range p.claimPatches {
		_, attached := existing[cp.creditorID]
		_, kept := wanted[cp.creditorID]
		if !attached && !kept {
			return dErrors.Validation(
				fmt.Sprintf("%s.%s[%d].%s", schema.StageProcedure, schema.FieldClaims, cp.index, schema.ClaimCreditorID),
				fmt.Sprintf("creditor %d is not attached to the case", cp.creditorID),
			)
		}
		patches[cp.creditorID] = cp
	}

	for _, id := range existingIDs {
		if _, ok := wanted[id]; !ok {
			p.plan.ClaimDeletes = append(p.plan.ClaimDeletes, id)
		}
	}

	var caseID int64
	if p.current != nil {
		caseID = p.current.ID
	}
	for _, id := range desired {
		cp, patched := patches[id]
		if row, ok := existing[id]; ok {
			if !patched {
				continue
			}
			updated := row.Clone()
			if applyClaim(updated, cp.values) {
				p.plan.ClaimUpdates = append(p.plan.ClaimUpdates, updated)
			}
			continue
		}
		created := models.NewZeroClaim(caseID, id)
		if patched {
			applyClaim(created, cp.values)
		}
		p.plan.ClaimCreates = append(p.plan.ClaimCreates, created)
	}
	return nil
}

// changedClaimValues drops the values of an attached claim that are
// resubmitted as they were read, so only edited values face strict coercion.
func (p *planner) changedClaimValues(item any) any {
	m, ok := item.(map[string]any)
	if !ok {
		return item
	}
	creditorID, ok := coerce.Int(m[schema.ClaimCreditorID]).(int64)
	if !ok {
		return item
	}
	row, attached := p.stored[creditorID]
	if !attached {
		return item
	}
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = value
	}
	for _, cf := range schema.ClaimFields {
		if cf.Name == schema.ClaimCreditorID || !cf.Persisted() {
			continue
		}
		if value, present := out[cf.Name]; present && coerce.Unchanged(cf, row.Value(cf.Column), value) {
			delete(out, cf.Name)
		}
	}
	return out
}

func applyClaim(row *models.ClaimRow, values map[string]any) bool {
	changed := false
	for _, f := range schema.ClaimFields {
		value, ok := values[f.Name]
		if !ok || !f.Persisted() {
			continue
		}
		if coerce.Equal(f, row.Value(f.Column), value) {
			continue
		}
		row.Set(f.Column, value)
		changed = true
	}
	return changed
}

func validation(path string, err error) error {
	var pe *coerce.PathError
	if errors.As(err, &pe) {
		return dErrors.Validation(path+pe.Path, pe.Msg)
	}
	return dErrors.Validation(path, err.Error())
}
