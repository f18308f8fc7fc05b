package models

import (
	"time"

	"casedesk/internal/contract/schema"
)

// CaseRow is one persisted case record. Columns holds raw driver values
// keyed by column name; absent and NULL columns both read as nil.
type CaseRow struct {
	ID      int64
	Columns map[string]any
}

// Get returns the raw value of a column.
func (r *CaseRow) Get(column string) any {
	if r == nil || r.Columns == nil {
		return nil
	}
	return r.Columns[column]
}

// Version returns the optimistic concurrency counter, 0 when unset.
func (r *CaseRow) Version() int64 {
	switch v := r.Get(schema.FieldVersion).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	}
	return 0
}

// Clone copies the row so callers may mutate the result.
func (r *CaseRow) Clone() *CaseRow {
	if r == nil {
		return nil
	}
	cols := make(map[string]any, len(r.Columns))
	for k, v := range r.Columns {
		cols[k] = v
	}
	return &CaseRow{ID: r.ID, Columns: cols}
}

// ClaimRow is one claim-ledger entry: the amounts a creditor claims against
// one case. (CaseID, CreditorID) is unique.
type ClaimRow struct {
	CaseID           int64
	CreditorID       int64
	Principal        *string
	Interest         *string
	Penalties        *string
	Fines            *string
	StateDuty        *string
	LegalCosts       *string
	RegistryPriority *string
	LegalBasis       []string
	Included         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewZeroClaim is the claim created when a creditor is attached to a case.
func NewZeroClaim(caseID, creditorID int64) *ClaimRow {
	zero := func() *string { s := "0"; return &s }
	return &ClaimRow{
		CaseID:     caseID,
		CreditorID: creditorID,
		Principal:  zero(),
		Interest:   zero(),
		Penalties:  zero(),
		Fines:      zero(),
		StateDuty:  zero(),
		LegalCosts: zero(),
		LegalBasis: []string{},
	}
}

func (c *ClaimRow) textField(column string) **string {
	switch column {
	case schema.ClaimPrincipal:
		return &c.Principal
	case schema.ClaimInterest:
		return &c.Interest
	case schema.ClaimPenalties:
		return &c.Penalties
	case schema.ClaimFines:
		return &c.Fines
	case schema.ClaimStateDuty:
		return &c.StateDuty
	case schema.ClaimLegalCosts:
		return &c.LegalCosts
	case schema.ClaimRegistryPriority:
		return &c.RegistryPriority
	}
	return nil
}

// Value returns the stored value of a claim column, nil for NULL.
func (c *ClaimRow) Value(column string) any {
	if p := c.textField(column); p != nil {
		if *p == nil {
			return nil
		}
		return **p
	}
	switch column {
	case schema.ClaimCreditorID:
		return c.CreditorID
	case schema.ClaimLegalBasis:
		return append([]string{}, c.LegalBasis...)
	case schema.ClaimIncluded:
		return c.Included
	}
	return nil
}

// Set stores a strictly coerced value into a claim column. Unknown columns
// and values of the wrong shape are ignored.
func (c *ClaimRow) Set(column string, value any) {
	if p := c.textField(column); p != nil {
		if s, ok := value.(string); ok {
			*p = &s
		} else {
			*p = nil
		}
		return
	}
	switch column {
	case schema.ClaimLegalBasis:
		list, _ := value.([]string)
		c.LegalBasis = append([]string{}, list...)
	case schema.ClaimIncluded:
		b, _ := value.(bool)
		c.Included = b
	}
}

// Clone copies the claim including its pointed-to amounts.
func (c *ClaimRow) Clone() *ClaimRow {
	if c == nil {
		return nil
	}
	out := *c
	for _, column := range []string{
		schema.ClaimPrincipal, schema.ClaimInterest, schema.ClaimPenalties, schema.ClaimFines,
		schema.ClaimStateDuty, schema.ClaimLegalCosts, schema.ClaimRegistryPriority,
	} {
		if p := c.textField(column); *p != nil {
			s := **p
			*out.textField(column) = &s
		}
	}
	out.LegalBasis = append([]string{}, c.LegalBasis...)
	return &out
}
