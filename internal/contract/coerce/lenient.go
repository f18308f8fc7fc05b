// Package coerce converts field values between their stored, wire and form
// shapes. Lenient functions never fail: they are used on the read path and
// map anything they cannot interpret to nil or an empty collection. Strict
// functions are used on the write path and reject what they cannot coerce.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/contract/schema"
	pkgstrings "casedesk/pkg/platform/strings"
)

var timeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02.01.2006",
	"02.01.2006 15:04",
}

// ParseTime parses the date and date-time layouts found in stored rows and
// client payloads. Zero dates such as "0000-00-00 00:00:00" do not parse.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() <= 1 {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() || x.Year() <= 1 {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return asTime(*x)
	case string:
		return ParseTime(x)
	case []byte:
		return ParseTime(string(x))
	}
	return time.Time{}, false
}

// Date renders a date as YYYY-MM-DD, or nil.
func Date(v any) any {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	return t.Format(time.DateOnly)
}

// DateTime renders a timestamp as RFC 3339 in UTC, or nil. Fractional
// seconds are kept so a rendered value reads back as the stored instant.
func DateTime(v any) any {
	t, ok := asTime(v)
	if !ok {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func numberString(v any) (string, bool) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case decimal.Decimal:
		return x.String(), true
	}
	return "", false
}

// Money passes amounts through as trimmed strings. Numbers are rendered
// without exponent.
func Money(v any) any {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return s
		}
		return nil
	case []byte:
		return Money(string(x))
	case *string:
		if x == nil {
			return nil
		}
		return Money(*x)
	}
	if s, ok := numberString(v); ok {
		return s
	}
	return nil
}

// String passes strings through untouched and renders scalars as text.
func String(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case bool:
		return strconv.FormatBool(x)
	}
	if s, ok := numberString(v); ok {
		return s
	}
	return nil
}

// Int returns an int64 for integral numbers and numeric strings, or nil.
func Int(v any) any {
	if n, ok := asInt(v); ok {
		return n
	}
	return nil
}

func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	case []byte:
		return asInt(string(x))
	}
	return 0, false
}

// Bool interprets booleans, 0/1 numbers and common textual spellings.
func Bool(v any) any {
	if b, ok := asBool(v); ok {
		return b
	}
	return nil
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "t", "1", "yes", "y", "on":
			return true, true
		case "false", "f", "0", "no", "n", "off":
			return false, true
		}
		return false, false
	case []byte:
		return asBool(string(x))
	}
	if n, ok := asInt(v); ok {
		return n != 0, true
	}
	return false, false
}

// SNILS renders eleven stored digits as XXX-XXX-XXX YY. Values that do not
// hold exactly eleven digits pass through as text.
func SNILS(v any) any {
	s, ok := String(v).(string)
	if !ok {
		return nil
	}
	if d := pkgstrings.Digits(s); len(d) == snilsDigits {
		return FormatSNILS(d)
	}
	return s
}

// StringList accepts a list, a JSON array text or a single plain string.
// Non-string elements are dropped.
func StringList(v any) []string {
	out := []string{}
	switch x := v.(type) {
	case []string:
		return append(out, x...)
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return out
		}
		var decoded []any
		if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &decoded) == nil {
			return StringList(decoded)
		}
		return append(out, x)
	case []byte:
		return StringList(string(x))
	}
	return out
}

// Records normalizes a nested collection against its element schema. Each
// element is defaulted on its own; an element that is not an object becomes
// a fully defaulted element.
func Records(v any, elem []schema.Field) []map[string]any {
	out := []map[string]any{}
	switch x := v.(type) {
	case []map[string]any:
		for _, item := range x {
			out = append(out, Record(item, elem))
		}
	case []any:
		for _, item := range x {
			m, _ := item.(map[string]any)
			out = append(out, Record(m, elem))
		}
	case string:
		var decoded []any
		if json.Unmarshal([]byte(x), &decoded) == nil {
			return Records(decoded, elem)
		}
	case []byte:
		return Records(string(x), elem)
	}
	return out
}

// Record keeps the element fields present in m, coerced leniently, and fills
// every other element field with its default. Unknown keys are dropped.
func Record(m map[string]any, elem []schema.Field) map[string]any {
	out := make(map[string]any, len(elem))
	for _, f := range elem {
		if v, ok := m[f.Name]; ok {
			out[f.Name] = Lenient(f, v)
			continue
		}
		out[f.Name] = f.DefaultValue()
	}
	return out
}

// Lenient coerces v to the canonical in-memory shape of f. Scalars that
// cannot be interpreted become nil; collections become empty.
func Lenient(f schema.Field, v any) any {
	switch f.Type {
	case schema.TypeString:
		return String(v)
	case schema.TypeDate:
		return Date(v)
	case schema.TypeDateTime:
		return DateTime(v)
	case schema.TypeMoney:
		return Money(v)
	case schema.TypeInt, schema.TypeRef:
		return Int(v)
	case schema.TypeBool:
		return Bool(v)
	case schema.TypeSNILS:
		return SNILS(v)
	case schema.TypeCreditorIDs:
		return NormalizeCreditors(v)
	case schema.TypeStringList:
		return StringList(v)
	case schema.TypeRecords:
		return Records(v, f.Elem)
	}
	return nil
}
