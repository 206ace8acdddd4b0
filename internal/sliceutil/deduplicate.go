// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	entries := []schedule.Entry{{Slot: "1"}, {Slot: "2"}, {Slot: "1"}}
//	unique := sliceutil.Deduplicate(entries, func(e schedule.Entry) string { return e.Slot })
//	// Result: [{Slot: "1"}, {Slot: "2"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			result = append(result, item)
		}
	}

	return result
}

// Unique is Deduplicate keyed by the items themselves.
func Unique[T comparable](items []T) []T {
	return Deduplicate(items, func(v T) T { return v })
}
