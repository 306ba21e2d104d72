package pricing

import (
	"sort"
	"strings"

	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

// Relevance tiers. Lower tier = higher priority. The ordering is policy, not
// heuristics: proximity and delivery-availability dominate raw price, on the
// theory that an unreachable cheaper price is not actionable. Any change to
// tier semantics is a product decision, not a bug fix.
const (
	tierCityDeliveryNew     = 1
	tierCountryDeliveryNew  = 2
	tierCityInStoreNew      = 3
	tierCityDeliveryUsed    = 4
	tierCityInStoreUsed     = 5
	tierCountryInStoreNew   = 6
	tierCountryDeliveryUsed = 7
	tierCountryInStoreUsed  = 8
	tierOtherDeliveryNew    = 9
	tierOtherDeliveryUsed   = 10
	tierOtherInStoreNew     = 11
	tierOtherInStoreUsed    = 12
	tierFallback            = 13
)

// Filters narrows a ranked list. Empty fields match everything.
type Filters struct {
	Country     string
	City        string
	Fulfillment domain.FulfillmentKind
	Condition   domain.Condition
}

// RankedPrices is the ranked (and optionally filtered) view of a product's
// canonical price groups, with counts for "N of M" style reporting.
type RankedPrices struct {
	Records       []CanonicalPriceGroup
	TotalCount    int
	FilteredCount int
}

// Tier computes the relevance bucket for an observation given the shopper's
// location. "Same city" requires both country and city to match; a shopper
// without a city on file can only reach country-level or global tiers.
func Tier(obs *schema.PriceObservation, shopper domain.Location) int {
	if obs.Fulfillment == domain.FulfillmentPersonToPerson {
		return tierFallback
	}

	capture := obs.CaptureLocation()
	sameCity := capture.SameCity(shopper)
	sameCountry := !sameCity && capture.SameCountry(shopper)
	delivery := obs.Fulfillment == domain.FulfillmentDelivery
	inStore := obs.Fulfillment == domain.FulfillmentInStore
	isNew := obs.Condition == domain.ConditionNew

	switch {
	case sameCity && delivery && isNew:
		return tierCityDeliveryNew
	case sameCountry && delivery && isNew:
		return tierCountryDeliveryNew
	case sameCity && inStore && isNew:
		return tierCityInStoreNew
	case sameCity && delivery:
		return tierCityDeliveryUsed
	case sameCity && inStore:
		return tierCityInStoreUsed
	case sameCountry && inStore && isNew:
		return tierCountryInStoreNew
	case sameCountry && delivery:
		return tierCountryDeliveryUsed
	case sameCountry && inStore:
		return tierCountryInStoreUsed
	case delivery && isNew:
		return tierOtherDeliveryNew
	case delivery:
		return tierOtherDeliveryUsed
	case inStore && isNew:
		return tierOtherInStoreNew
	case inStore:
		return tierOtherInStoreUsed
	default:
		return tierFallback
	}
}

// Rank orders canonical price groups by (tier ascending, price ascending).
// Equal (tier, price) falls back to the group key so repeated runs over the
// same input produce identical output.
func Rank(groups []CanonicalPriceGroup, shopper domain.Location) []CanonicalPriceGroup {
	ranked := make([]CanonicalPriceGroup, len(groups))
	copy(ranked, groups)

	sort.Slice(ranked, func(i, j int) bool {
		ti, tj := Tier(&ranked[i].Current, shopper), Tier(&ranked[j].Current, shopper)
		if ti != tj {
			return ti < tj
		}
		if ranked[i].Current.Price != ranked[j].Current.Price {
			return ranked[i].Current.Price < ranked[j].Current.Price
		}
		return ranked[i].Key < ranked[j].Key
	})

	return ranked
}

// Apply filters a ranked list, preserving order, and reports both the
// filtered and the unfiltered count.
func (f Filters) Apply(ranked []CanonicalPriceGroup) RankedPrices {
	result := RankedPrices{TotalCount: len(ranked)}

	if f == (Filters{}) {
		result.Records = ranked
		result.FilteredCount = len(ranked)
		return result
	}

	result.Records = make([]CanonicalPriceGroup, 0, len(ranked))
	for _, group := range ranked {
		if f.matches(&group.Current) {
			result.Records = append(result.Records, group)
		}
	}
	result.FilteredCount = len(result.Records)
	return result
}

func (f Filters) matches(obs *schema.PriceObservation) bool {
	if f.Country != "" && !strings.EqualFold(obs.Country, f.Country) {
		return false
	}
	if f.City != "" {
		if obs.City == nil || !strings.EqualFold(*obs.City, f.City) {
			return false
		}
	}
	if f.Fulfillment != "" && obs.Fulfillment != f.Fulfillment {
		return false
	}
	if f.Condition != "" && obs.Condition != f.Condition {
		return false
	}
	return true
}
