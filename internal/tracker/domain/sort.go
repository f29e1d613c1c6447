package domain

import (
	"sort"
	"strconv"
	"strings"
)

// SortIssuesByKey orders issues ascending by key, the canonical order every
// search result uses. Keys of the form PRJ-42 compare by project prefix,
// then numerically by sequence, so PRJ-9 sorts before PRJ-10.
func SortIssuesByKey(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return KeyLess(issues[i].Key, issues[j].Key)
	})
}

// KeyLess compares two issue keys in canonical order.
func KeyLess(a, b string) bool {
	ap, an := splitKey(a)
	bp, bn := splitKey(b)
	if ap != bp {
		return ap < bp
	}
	return an < bn
}

func splitKey(key string) (string, int64) {
	idx := strings.LastIndex(key, "-")
	if idx < 0 {
		return key, 0
	}
	n, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return key, 0
	}
	return key[:idx], n
}
