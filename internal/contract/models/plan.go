package models

// WritePlan is the set of row operations that applies an edit to a case.
// It is computed entirely before any write happens.
type WritePlan struct {
	// Create is set when no case row exists yet.
	Create bool
	// Columns holds the changed case columns with values ready for storage.
	Columns map[string]any
	// ClaimCreates are claims for newly attached creditors.
	ClaimCreates []*ClaimRow
	// ClaimUpdates are retained claims whose values changed.
	ClaimUpdates []*ClaimRow
	// ClaimDeletes are creditor ids detached from the case.
	ClaimDeletes []int64
}

// Changed reports whether the plan alters any persisted value.
func (p *WritePlan) Changed() bool {
	return len(p.Columns) > 0 || len(p.ClaimCreates) > 0 || len(p.ClaimUpdates) > 0 || len(p.ClaimDeletes) > 0
}

// Touch reports whether only updated_at would be written: the edit carried
// no effective change to an existing case.
func (p *WritePlan) Touch() bool {
	return !p.Create && !p.Changed()
}
