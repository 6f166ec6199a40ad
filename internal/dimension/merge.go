package dimension

import "fmt"

// Row is a dimension row with a natural key.
type Row interface {
	NaturalKey() string
}

// Policy is the slowly-changing-dimension policy: what happens to an existing
// dimension row when new attributes arrive for its natural key.
type Policy string

const (
	// PolicyInsertOnly keeps the first row ever written for a natural key and
	// ignores later arrivals. This is the default and matches the warehouse's
	// merge-when-not-matched load behavior.
	PolicyInsertOnly Policy = "insert-only"

	// PolicyOverwrite replaces the existing row's attributes in place.
	PolicyOverwrite Policy = "overwrite"
)

// Merge combines incoming dimension rows into an existing row set according to
// the given policy. Rows are matched on their natural key; surrogate keys are
// deterministic, so a matched incoming row always carries the same surrogate
// key as the existing one. Incoming duplicates resolve to the first occurrence.
func Merge[T Row](existing, incoming []T, policy Policy) ([]T, error) {
	switch policy {
	case PolicyInsertOnly, PolicyOverwrite:
	default:
		return nil, fmt.Errorf("unknown dimension policy %q", policy)
	}

	out := make([]T, len(existing))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, r := range out {
		index[r.NaturalKey()] = i
	}

	seen := make(map[string]struct{}, len(incoming))
	for _, r := range incoming {
		key := r.NaturalKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if i, ok := index[key]; ok {
			if policy == PolicyOverwrite {
				out[i] = r
			}
			continue
		}

		index[key] = len(out)
		out = append(out, r)
	}

	return out, nil
}
