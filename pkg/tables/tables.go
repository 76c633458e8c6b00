// Package tables implements the small set of ordered, in-memory table
// operations the transformer is built on. First-occurrence and ordering
// semantics are part of the pipeline contract, so these are written out
// directly rather than delegated to a dataframe-style library.
package tables

import "time"

// DistinctByKey returns the rows whose key appears for the first time, in
// input order. Rows with no key (ok == false) are dropped. The first full
// row for a key wins; later rows with the same key are discarded even when
// their other fields differ.
func DistinctByKey[T any, K comparable](rows []T, key func(T) (K, bool)) []T {
	seen := make(map[K]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}

// IndexByKey builds a first-occurrence-wins lookup from key to row value.
// It is the lookup side of a left join: unmatched probes simply miss.
func IndexByKey[T any, K comparable, V any](rows []T, key func(T) (K, bool), value func(T) V) map[K]V {
	idx := make(map[K]V, len(rows))
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		if _, dup := idx[k]; dup {
			continue
		}
		idx[k] = value(row)
	}
	return idx
}

// Group is one key's rows, in input order.
type Group[K comparable, T any] struct {
	Key  K
	Rows []T
}

// GroupByKey groups rows by key, preserving first-appearance order of keys
// and input order of rows within each group.
func GroupByKey[T any, K comparable](rows []T, key func(T) K) []Group[K, T] {
	index := make(map[K]int, len(rows))
	groups := make([]Group[K, T], 0)
	for _, row := range rows {
		k := key(row)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// Mean is the arithmetic mean of the non-nil values. Nil values are excluded
// from the mean, not counted as zero. All-nil input yields nil.
func Mean(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// MaxTime is the latest non-nil instant, or nil when there is none.
func MaxTime(values []*time.Time) *time.Time {
	var max *time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		if max == nil || v.After(*max) {
			max = v
		}
	}
	if max == nil {
		return nil
	}
	t := *max
	return &t
}

// MinDate is the earliest calendar day (UTC midnight) among the non-nil
// instants, or nil when there is none.
func MinDate(values []*time.Time) *time.Time {
	var min *time.Time
	for _, v := range values {
		if v == nil {
			continue
		}
		day := time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		if min == nil || day.Before(*min) {
			min = &day
		}
	}
	return min
}
