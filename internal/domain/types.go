package domain

import (
	"fmt"
	"strings"
)

// FulfillmentKind represents how the buyer obtains the product
type FulfillmentKind string

const (
	FulfillmentDelivery       FulfillmentKind = "delivery"
	FulfillmentInStore        FulfillmentKind = "in_store"
	FulfillmentPersonToPerson FulfillmentKind = "person_to_person"
)

// IsValidFulfillmentKind checks if a fulfillment kind is valid
func IsValidFulfillmentKind(k FulfillmentKind) bool {
	return k == FulfillmentDelivery ||
		k == FulfillmentInStore ||
		k == FulfillmentPersonToPerson
}

// Condition represents the condition of the offered product
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionUsed Condition = "used"
)

// IsValidCondition checks if a condition is valid
func IsValidCondition(c Condition) bool {
	return c == ConditionNew || c == ConditionUsed
}

// ModerationStatus represents the lifecycle state of a price observation
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// IsValidModerationStatus checks if a moderation status is valid
func IsValidModerationStatus(s ModerationStatus) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// ReviewDecision represents the outcome a moderator chooses for a pending observation
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// IsValidReviewDecision checks if a review decision is valid
func IsValidReviewDecision(d ReviewDecision) bool {
	return d == DecisionApprove || d == DecisionReject
}

// Role represents the trust level of a user at submission time
type Role string

const (
	RoleShopper   Role = "shopper"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// CanModerate reports whether the role may review pending observations
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// AutoApproves reports whether submissions from this role skip the pending queue
func (r Role) AutoApproves() bool {
	return r == RoleModerator || r == RoleAdmin
}

// DeletedUserID is the sentinel submitter assigned to observations whose
// author deleted their account. Rows are never removed so that aggregate
// history stays intact.
const DeletedUserID = "deleted-user"

// Location represents a capture or shopper location. Country uses ISO 3166-1
// alpha-2 codes; City is free text and optional.
type Location struct {
	Country string
	City    *string
}

// HasCity reports whether a non-empty city is present
func (l Location) HasCity() bool {
	return l.City != nil && *l.City != ""
}

// Suffix returns the location suffix used in canonical store keys:
// "country" alone, or "country:city" when a city is present.
func (l Location) Suffix() string {
	country := strings.ToLower(l.Country)
	if l.HasCity() {
		return fmt.Sprintf("%s:%s", country, strings.ToLower(*l.City))
	}
	return country
}

// SameCountry reports whether both locations carry the same non-empty country
func (l Location) SameCountry(other Location) bool {
	return l.Country != "" && strings.EqualFold(l.Country, other.Country)
}

// SameCity reports whether both country and city match. A location without a
// city never matches at city level.
func (l Location) SameCity(other Location) bool {
	if !l.SameCountry(other) {
		return false
	}
	if !l.HasCity() || !other.HasCity() {
		return false
	}
	return strings.EqualFold(*l.City, *other.City)
}
