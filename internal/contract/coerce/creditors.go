package coerce

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeCreditors turns any creditor-list shape seen on the wire into an
// ordered, de-duplicated list of positive ids. Elements may be numbers,
// numeric strings or objects carrying "id", "creditorId" or "creditor_id".
// Anything else is skipped.
//
//	NormalizeCreditors([]any{1, "2", map[string]any{"id": 3}, map[string]any{"creditorId": 4}, "abc", nil})
//	// Returns: []int64{1, 2, 3, 4}
func NormalizeCreditors(v any) []int64 {
	out := []int64{}
	seen := map[int64]struct{}{}
	for _, item := range creditorItems(v) {
		id, ok := creditorRef(item)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// StrictCreditors is NormalizeCreditors for the write path: the first
// element that is not a creditor reference is reported by index.
func StrictCreditors(v any) ([]int64, error) {
	if v == nil {
		return []int64{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		switch v.(type) {
		case []int64, []int, []map[string]any:
			items = creditorItems(v)
		default:
			return nil, &PathError{Msg: "must be a list of creditor ids"}
		}
	}
	out := []int64{}
	seen := map[int64]struct{}{}
	for i, item := range items {
		id, ok := creditorRef(item)
		if !ok {
			return nil, &PathError{Path: fmt.Sprintf("[%d]", i), Msg: "must be a positive creditor id"}
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func creditorItems(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []int64:
		items := make([]any, len(x))
		for i, id := range x {
			items[i] = id
		}
		return items
	case []int:
		items := make([]any, len(x))
		for i, id := range x {
			items[i] = id
		}
		return items
	case []map[string]any:
		items := make([]any, len(x))
		for i, m := range x {
			items[i] = m
		}
		return items
	}
	return nil
}

var creditorKeys = []string{"id", "creditorId", "creditor_id"}

func creditorRef(item any) (int64, bool) {
	if m, ok := item.(map[string]any); ok {
		for _, key := range creditorKeys {
			if v, ok := m[key]; ok && v != nil {
				return creditorRef(v)
			}
		}
		return 0, false
	}
	var id int64
	switch x := item.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		id = n
	default:
		n, ok := asInt(item)
		if !ok {
			return 0, false
		}
		id = n
	}
	return id, id > 0
}
