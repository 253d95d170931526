package store

import (
	"cmp"
	"slices"
	"time"
)

func sortedValues[V any](m map[string]V, key func(V) string) []V {
	result := make([]V, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	slices.SortFunc(result, func(a, b V) int { return cmp.Compare(key(a), key(b)) })
	return result
}

func sortedByCreation[V any](m map[string]V, key func(V) (time.Time, string)) []V {
	result := make([]V, 0, len(m))
	for _, v := range m {
		result = append(result, v)
	}
	slices.SortFunc(result, func(a, b V) int {
		ta, ka := key(a)
		tb, kb := key(b)
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return cmp.Compare(ka, kb)
	})
	return result
}
