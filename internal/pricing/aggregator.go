package pricing

import (
	"sort"

	"github.com/omribarmats/pricegit/internal/store/schema"
)

// CanonicalPriceGroup is the derived aggregate of all approved observations
// believed to refer to the same real-world selling offer. It is ephemeral:
// recomputed per aggregation run, never persisted, and stable only within
// one ranking pass.
type CanonicalPriceGroup struct {
	// Key is the canonical group key; an implementation detail of one run,
	// exposed for diagnostics only
	Key string
	// Current is the group member with the maximum creation timestamp
	Current schema.PriceObservation
	// History holds the remaining members, newest first
	History []schema.PriceObservation
}

// AggregateResult holds the outcome of one aggregation run
type AggregateResult struct {
	Groups []CanonicalPriceGroup
	// SkippedMalformed counts observations excluded for missing a
	// capture-location country. Callers log it; it is never fatal.
	SkippedMalformed int
}

// Aggregate partitions approved observations for one product into canonical
// price groups. Pure function of its input: a fresh resolver is built per
// call, every well-formed observation lands in exactly one group, and
// repeated runs over the same input yield identical output. O(n log n).
func Aggregate(observations []schema.PriceObservation) AggregateResult {
	resolver := newStoreResolver()

	var result AggregateResult
	wellFormed := make([]schema.PriceObservation, 0, len(observations))
	for i := range observations {
		if observations[i].Country == "" {
			result.SkippedMalformed++
			continue
		}
		wellFormed = append(wellFormed, observations[i])
	}

	// First pass links each observation's keys; only after all links exist is
	// the partition final, which is what makes grouping order-independent.
	for i := range wellFormed {
		resolver.observe(&wellFormed[i])
	}

	members := make(map[string][]schema.PriceObservation)
	for i := range wellFormed {
		key := resolver.canonicalKey(&wellFormed[i])
		members[key] = append(members[key], wellFormed[i])
	}

	for key, group := range members {
		// Newest first; equal timestamps fall back to ULID order so repeated
		// runs are deterministic
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.After(group[j].CreatedAt)
			}
			return group[i].ID > group[j].ID
		})

		result.Groups = append(result.Groups, CanonicalPriceGroup{
			Key:     key,
			Current: group[0],
			History: group[1:],
		})
	}

	// Group keys depend on set representatives, but for a fixed input set they
	// are fixed, so sorting by key makes the whole result deterministic
	sort.Slice(result.Groups, func(i, j int) bool {
		return result.Groups[i].Key < result.Groups[j].Key
	})

	return result
}
