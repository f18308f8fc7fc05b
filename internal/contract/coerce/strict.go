package coerce

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/contract/schema"
	pkgstrings "casedesk/pkg/platform/strings"
)

// PathError is a strict coercion failure. Path is relative to the field
// being coerced ("" for the field itself, "[2].birth_date" inside records).
type PathError struct {
	Path string
	Msg  string
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

func fail(msg string) error {
	return &PathError{Msg: msg}
}

// Strict coerces a client value into the value stored for f. Empty strings
// clear scalar fields. Records are returned as their JSON column text.
func Strict(f schema.Field, v any) (any, error) {
	if v == nil {
		if f.Type.IsCollection() {
			return strictEmpty(f), nil
		}
		return nil, nil
	}
	switch f.Type {
	case schema.TypeString:
		return strictString(v)
	case schema.TypeDate:
		return strictDate(v)
	case schema.TypeDateTime:
		return strictDateTime(v)
	case schema.TypeMoney:
		return StrictMoney(v)
	case schema.TypeInt:
		return strictInt(v)
	case schema.TypeRef:
		return strictRef(v)
	case schema.TypeBool:
		return strictBool(v)
	case schema.TypeSNILS:
		return strictSNILS(v)
	case schema.TypeCreditorIDs:
		return StrictCreditors(v)
	case schema.TypeStringList:
		return strictStringList(v)
	case schema.TypeRecords:
		records, err := StrictRecords(v, f.Elem)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(records)
		if err != nil {
			return nil, fail("cannot be encoded")
		}
		return string(raw), nil
	}
	return nil, fail("has an unsupported type")
}

func strictEmpty(f schema.Field) any {
	if f.Type == schema.TypeRecords {
		return "[]"
	}
	return f.DefaultValue()
}

func strictText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func strictString(v any) (any, error) {
	if s, ok := strictText(v); ok {
		if s == "" {
			return nil, nil
		}
		return s, nil
	}
	if s, ok := numberString(v); ok {
		return s, nil
	}
	return nil, fail("must be a string")
}

func strictDate(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.DateOnly), nil
	}
	s, ok := strictText(v)
	if !ok {
		return nil, fail("must be a date (YYYY-MM-DD)")
	}
	if s == "" {
		return nil, nil
	}
	t, ok := ParseTime(s)
	if !ok {
		return nil, fail("must be a date (YYYY-MM-DD)")
	}
	return t.Format(time.DateOnly), nil
}

func strictDateTime(v any) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	s, ok := strictText(v)
	if !ok {
		return nil, fail("must be an RFC 3339 timestamp")
	}
	if s == "" {
		return nil, nil
	}
	t, ok := ParseTime(s)
	if !ok {
		return nil, fail("must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}

// StrictMoney validates a non-negative decimal amount and returns it as
// text. Grouping spaces are removed and a decimal comma is accepted.
func StrictMoney(v any) (any, error) {
	s, ok := strictText(v)
	if !ok {
		if s, ok = numberString(v); !ok {
			return nil, fail("must be a decimal amount")
		}
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fail("must be a decimal amount")
	}
	if d.IsNegative() {
		return nil, fail("must not be negative")
	}
	return s, nil
}

func strictInt(v any) (any, error) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, ok := asInt(v)
	if !ok {
		return nil, fail("must be an integer")
	}
	return n, nil
}

func strictRef(v any) (any, error) {
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, ok := asInt(v)
	if !ok || n <= 0 {
		return nil, fail("must be a positive id")
	}
	return n, nil
}

func strictBool(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	if n, ok := v.(json.Number); ok {
		switch n.String() {
		case "0":
			return false, nil
		case "1":
			return true, nil
		}
	}
	return nil, fail("must be a boolean")
}

func strictSNILS(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fail("must be a string")
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	digits := pkgstrings.Digits(s)
	if len(digits) != snilsDigits {
		return nil, fail("must contain 11 digits")
	}
	if !ValidSNILSChecksum(digits) {
		return nil, fail("has an invalid checksum")
	}
	return digits, nil
}

func strictStringList(v any) (any, error) {
	switch x := v.(type) {
	case []string:
		return pkgstrings.DedupeAndTrim(append([]string{}, x...)), nil
	case []any:
		values := make([]string, 0, len(x))
		for i, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, &PathError{Path: fmt.Sprintf("[%d]", i), Msg: "must be a string"}
			}
			values = append(values, s)
		}
		return pkgstrings.DedupeAndTrim(values), nil
	}
	return nil, fail("must be a list of strings")
}

// StrictRecords coerces every element of a nested collection. Missing
// writable element fields are filled with their defaults; read-only element
// fields are ignored.
func StrictRecords(v any, elem []schema.Field) ([]map[string]any, error) {
	items, ok := v.([]any)
	if !ok {
		if typed, isTyped := v.([]map[string]any); isTyped {
			items = make([]any, len(typed))
			for i, m := range typed {
				items[i] = m
			}
		} else {
			return nil, fail("must be a list")
		}
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		record, err := StrictRecord(item, elem)
		if err != nil {
			return nil, prefix(fmt.Sprintf("[%d]", i), err)
		}
		for _, f := range elem {
			if _, ok := record[f.Name]; !ok && f.Writable() {
				record[f.Name] = f.DefaultValue()
			}
		}
		out = append(out, record)
	}
	return out, nil
}

// StrictRecord coerces the writable fields present in one element. Keys that
// are absent stay absent so callers can apply patch semantics.
func StrictRecord(item any, elem []schema.Field) (map[string]any, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return nil, fail("must be an object")
	}
	out := make(map[string]any, len(m))
	for _, f := range elem {
		raw, ok := m[f.Name]
		if !ok || !f.Writable() {
			continue
		}
		value, err := Strict(f, raw)
		if err != nil {
			return nil, prefix("."+f.Name, err)
		}
		if f.Type == schema.TypeDateTime {
			if t, isTime := value.(time.Time); isTime {
				value = t.Format(time.RFC3339Nano)
			}
		}
		out[f.Name] = value
	}
	return out, nil
}

func prefix(p string, err error) error {
	if pe, ok := err.(*PathError); ok {
		return &PathError{Path: p + pe.Path, Msg: pe.Msg}
	}
	return &PathError{Path: p, Msg: err.Error()}
}
