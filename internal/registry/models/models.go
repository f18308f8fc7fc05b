package models

import (
	"fmt"
	"strings"
)

// Kind names one reference table. Cases and claims refer to entities by
// (kind, id) only, never by value.
type Kind string

const (
	KindCreditor            Kind = "creditor"
	KindCourt               Kind = "court"
	KindBailiff             Kind = "bailiff"
	KindTaxBranch           Kind = "tax_branch"
	KindRosreestrBranch     Kind = "rosreestr_branch"
	KindGibddBranch         Kind = "gibdd_branch"
	KindGostekhnadzorBranch Kind = "gostekhnadzor_branch"
	KindGimsBranch          Kind = "gims_branch"
	KindUser                Kind = "user"
)

// Kinds lists every registry kind in a stable order.
var Kinds = []Kind{
	KindCreditor,
	KindCourt,
	KindBailiff,
	KindTaxBranch,
	KindRosreestrBranch,
	KindGibddBranch,
	KindGostekhnadzorBranch,
	KindGimsBranch,
	KindUser,
}

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known registry kind.
func (k Kind) IsValid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsRegulator reports whether entities of this kind live in the shared
// regulator_branches table.
func (k Kind) IsRegulator() bool {
	switch k {
	case KindRosreestrBranch, KindGibddBranch, KindGostekhnadzorBranch, KindGimsBranch:
		return true
	default:
		return false
	}
}

// ParseKind validates a kind coming from a URL or query string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown registry kind %q", s)
	}
	return k, nil
}

// Entity is a reference record: a creditor, court, bailiff office, tax or
// regulator branch, or a back-office user.
type Entity struct {
	Kind    Kind   `json:"kind"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Page is one page of search results. Page numbers start at 1.
type Page struct {
	Items    []*Entity `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClampPage normalizes page and pageSize to the accepted range.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
