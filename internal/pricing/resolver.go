package pricing

import (
	"fmt"
	"strings"

	"github.com/omribarmats/pricegit/internal/store/schema"
)

// storeResolver merges the naming schemes that may refer to one real-world
// store into canonical group keys. It is a string-keyed union-find: each
// observation contributes up to two provisional keys (stable id, free-text
// name or source label), and keys seen together on one observation are
// linked. A store first referenced only by name and later by id converges
// onto one set once any observation carries both.
//
// Known trade-off: two observations with different store ids but the same
// name+location share a name key and therefore merge. This favors fewer
// duplicate listings over perfect separation and is intentional; do not
// "fix" it by dropping the name link.
//
// A resolver is built fresh for every aggregation call and never shared, so
// aggregation stays pure and safe to run concurrently.
type storeResolver struct {
	parent map[string]string
}

func newStoreResolver() *storeResolver {
	return &storeResolver{parent: make(map[string]string)}
}

// find returns the set representative for key, with path compression
func (r *storeResolver) find(key string) string {
	root := key
	for {
		p, ok := r.parent[root]
		if !ok || p == root {
			break
		}
		root = p
	}
	for key != root {
		next := r.parent[key]
		r.parent[key] = root
		key = next
	}
	return root
}

// union links the sets containing a and b. Whichever representative was seen
// first stays the anchor; processing order can change which key labels a set
// but never which observations end up grouped together.
func (r *storeResolver) union(a, b string) {
	ra, rb := r.find(a), r.find(b)
	if ra != rb {
		r.parent[rb] = ra
	}
}

// observe registers an observation's provisional keys and links them
func (r *storeResolver) observe(obs *schema.PriceObservation) {
	idKey, nameKey := provisionalKeys(obs)
	if idKey != "" && nameKey != "" {
		r.union(idKey, nameKey)
	}
}

// canonicalKey resolves the canonical group key for an observation. All
// observations of the input set must have been passed to observe first, so
// the returned key only depends on the set, not on processing order within it.
func (r *storeResolver) canonicalKey(obs *schema.PriceObservation) string {
	idKey, nameKey := provisionalKeys(obs)
	switch {
	case idKey != "":
		return r.find(idKey)
	case nameKey != "":
		return r.find(nameKey)
	default:
		return "unknown:" + obs.CaptureLocation().Suffix()
	}
}

// provisionalKeys builds the up-to-two keys an observation contributes: an id
// key when a stable store id is present, and a name key from the free-text
// store name (case-insensitive), falling back to the source label.
func provisionalKeys(obs *schema.PriceObservation) (idKey, nameKey string) {
	suffix := obs.CaptureLocation().Suffix()

	if obs.StoreID != nil && *obs.StoreID != "" {
		idKey = fmt.Sprintf("id:%s:%s", *obs.StoreID, suffix)
	}

	switch {
	case obs.StoreName != nil && *obs.StoreName != "":
		nameKey = fmt.Sprintf("name:%s:%s", strings.ToLower(*obs.StoreName), suffix)
	case obs.SourceLabel != nil && *obs.SourceLabel != "":
		nameKey = fmt.Sprintf("source:%s:%s", strings.ToLower(*obs.SourceLabel), suffix)
	}

	return idKey, nameKey
}
