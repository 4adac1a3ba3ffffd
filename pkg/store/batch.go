// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package store

import "strings"

// batched splits items into chunks of at most size and calls fn on each,
// stopping at the first error. Order within and across chunks is
// preserved, which the build pipeline relies on to get deterministic
// database files when callers pre-sort their input (spec.md §9).
func batched[T any](items []T, size int, fn func([]T) error) error {
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// inClause builds a "?, ?, ..." placeholder string and the matching args
// slice for a SQL IN (...) clause.
func inClause[T any](items []T) (string, []any) {
	placeholders := make([]string, len(items))
	args := make([]any, len(items))
	for i, it := range items {
		placeholders[i] = "?"
		args[i] = it
	}
	return strings.Join(placeholders, ", "), args
}
