// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"strconv"
	"strings"
)

// groupDelimiters are checked in this order; the first kind that matches
// decides a merge.
var groupDelimiters = [...]struct{ open, close string }{
	{"(", ")"},
	{"[", "]"},
	{"{", "}"},
}

// SplitPreservingGroups splits a comma separated value while keeping
// bracketed groups such as "CESM1(CAM5.1,FV2)" in one piece. Only one
// lookahead piece is considered, so unbalanced groups stay split.
func SplitPreservingGroups(value string) []string {
	pieces := strings.Split(value, ",")
	if len(pieces) == 1 {
		return []string{value}
	}
	for i := range pieces {
		pieces[i] = strings.TrimSpace(pieces[i])
	}

	values := make([]string, 0, len(pieces))
	for i := 0; i < len(pieces); i++ {
		if i < len(pieces)-1 && opensGroup(pieces[i], pieces[i+1]) {
			values = append(values, pieces[i]+","+pieces[i+1])
			i++
			continue
		}
		values = append(values, pieces[i])
	}
	return values
}

func opensGroup(current, next string) bool {
	for _, d := range groupDelimiters {
		if strings.Contains(current, d.open) && !strings.Contains(current, d.close) &&
			strings.Contains(next, d.close) && !strings.Contains(next, d.open) {
			return true
		}
	}
	return false
}

// NormalizeFilterValue turns a decoded JSON filter value into facet values.
// Strings are split with SplitPreservingGroups, numbers and booleans are
// rendered as is and arrays are flattened.
func NormalizeFilterValue(v any) []string {
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		return SplitPreservingGroups(value)
	case float64:
		return []string{strconv.FormatFloat(value, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(value)}
	case int64:
		return []string{strconv.FormatInt(value, 10)}
	case bool:
		return []string{strconv.FormatBool(value)}
	case []string:
		values := make([]string, 0, len(value))
		for _, item := range value {
			values = append(values, SplitPreservingGroups(item)...)
		}
		return values
	case []any:
		values := make([]string, 0, len(value))
		for _, item := range value {
			values = append(values, NormalizeFilterValue(item)...)
		}
		return values
	default:
		return []string{fmt.Sprint(value)}
	}
}

// NormalizeFilters applies NormalizeFilterValue to every filter, dropping
// filters left without any value.
func NormalizeFilters(raw map[string]any) map[string][]string {
	filters := make(map[string][]string, len(raw))
	for name, value := range raw {
		values := NormalizeFilterValue(value)
		if len(values) == 0 {
			continue
		}
		filters[name] = values
	}
	return filters
}
