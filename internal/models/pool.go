package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ModelID identifies one model in the candidate pool. The soft prompt was
// trained jointly against every model in the pool; attribution labels are
// always ModelIDs, never positional indices.
type ModelID int

func (m ModelID) String() string {
	return strconv.Itoa(int(m))
}

// Pool is an ordered, deduplicated set of model identifiers. It is fixed for
// the duration of an evaluation run and defines the label space for every
// token assignment.
type Pool []ModelID

// NewPool builds a pool from raw model numbers, preserving first-seen order
// and dropping duplicates.
func NewPool(ids []int) Pool {
	seen := make(map[ModelID]bool, len(ids))
	pool := make(Pool, 0, len(ids))
	for _, id := range ids {
		m := ModelID(id)
		if seen[m] {
			continue
		}
		seen[m] = true
		pool = append(pool, m)
	}
	return pool
}

// ParsePool parses a comma-separated list of model numbers, e.g. "0,3,7".
func ParsePool(s string) (Pool, error) {
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid model number %q: %w", p, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("invalid model number %d: must be >= 0", id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("model pool is empty")
	}
	return NewPool(ids), nil
}

// Contains reports whether m is a member of the pool.
func (p Pool) Contains(m ModelID) bool {
	for _, id := range p {
		if id == m {
			return true
		}
	}
	return false
}

// Sorted returns a copy of the pool in ascending identifier order.
func (p Pool) Sorted() Pool {
	out := make(Pool, len(p))
	copy(out, p)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Join renders the pool as identifiers joined by sep, in pool order.
func (p Pool) Join(sep string) string {
	parts := make([]string, len(p))
	for i, m := range p {
		parts[i] = m.String()
	}
	return strings.Join(parts, sep)
}
