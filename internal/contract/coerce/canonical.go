package coerce

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/contract/schema"
	pkgstrings "casedesk/pkg/platform/strings"
)

// Canonical maps a stored or freshly coerced value to a form where equal
// meanings compare equal: "100.50" and "100.5" are the same amount, a SNILS
// with or without separators is the same number, an empty string is null.
func Canonical(f schema.Field, v any) any {
	switch f.Type {
	case schema.TypeString:
		s, ok := String(v).(string)
		if !ok {
			return nil
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		return s
	case schema.TypeDateTime:
		t, ok := asTime(v)
		if !ok {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	case schema.TypeMoney:
		return CanonicalMoney(v)
	case schema.TypeSNILS:
		s, ok := String(v).(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil
		}
		if d := pkgstrings.Digits(s); len(d) == snilsDigits {
			return d
		}
		return s
	case schema.TypeStringList:
		return pkgstrings.DedupeAndTrim(StringList(v))
	case schema.TypeRecords:
		raw, err := json.Marshal(canonicalRecords(Records(v, f.Elem), f.Elem))
		if err != nil {
			return nil
		}
		return string(raw)
	}
	return Lenient(f, v)
}

func canonicalRecords(records []map[string]any, elem []schema.Field) []map[string]any {
	for _, record := range records {
		for _, f := range elem {
			record[f.Name] = Canonical(f, record[f.Name])
		}
	}
	return records
}

// CanonicalMoney returns the normalized decimal text of an amount, or the
// trimmed text when it is not a decimal.
func CanonicalMoney(v any) any {
	s, ok := Money(v).(string)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s))
	if err != nil {
		return s
	}
	return d.String()
}

// Equal reports whether two values of f carry the same meaning.
func Equal(f schema.Field, a, b any) bool {
	return reflect.DeepEqual(Canonical(f, a), Canonical(f, b))
}

// Unchanged reports whether a client value carries the stored value of a
// scalar field as the read path rendered it. Such a value is kept as stored
// even when it would not pass strict coercion. A non-blank client value the
// read path cannot make sense of never counts as unchanged.
func Unchanged(f schema.Field, stored, client any) bool {
	if f.Type.IsCollection() {
		return false
	}
	if !blank(client) && Canonical(f, client) == nil {
		return false
	}
	return Equal(f, stored, client)
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
