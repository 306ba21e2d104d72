package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestRoleCanModerate(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{name: "shopper cannot moderate", role: RoleShopper, expected: false},
		{name: "moderator can moderate", role: RoleModerator, expected: true},
		{name: "admin can moderate", role: RoleAdmin, expected: true},
		{name: "unknown role cannot moderate", role: Role("bot"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.CanModerate())
		})
	}
}

func TestRoleAutoApproves(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected bool
	}{
		{name: "shopper submissions stay pending", role: RoleShopper, expected: false},
		{name: "moderator submissions auto-approve", role: RoleModerator, expected: true},
		{name: "admin submissions auto-approve", role: RoleAdmin, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.AutoApproves())
		})
	}
}

func TestLocationSuffix(t *testing.T) {
	tests := []struct {
		name     string
		location Location
		expected string
	}{
		{
			name:     "country only",
			location: Location{Country: "DE"},
			expected: "de",
		},
		{
			name:     "country and city",
			location: Location{Country: "DE", City: strPtr("Berlin")},
			expected: "de:berlin",
		},
		{
			name:     "empty city pointer treated as absent",
			location: Location{Country: "DE", City: strPtr("")},
			expected: "de",
		},
		{
			name:     "mixed case normalized",
			location: Location{Country: "Fr", City: strPtr("PARIS")},
			expected: "fr:paris",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.location.Suffix())
		})
	}
}

func TestLocationSameCountry(t *testing.T) {
	tests := []struct {
		name     string
		a        Location
		b        Location
		expected bool
	}{
		{
			name:     "same country different case",
			a:        Location{Country: "de"},
			b:        Location{Country: "DE"},
			expected: true,
		},
		{
			name:     "different countries",
			a:        Location{Country: "DE"},
			b:        Location{Country: "FR"},
			expected: false,
		},
		{
			name:     "empty country never matches",
			a:        Location{Country: ""},
			b:        Location{Country: ""},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.SameCountry(tt.b))
		})
	}
}

func TestLocationSameCity(t *testing.T) {
	tests := []struct {
		name     string
		a        Location
		b        Location
		expected bool
	}{
		{
			name:     "same country and city",
			a:        Location{Country: "DE", City: strPtr("Berlin")},
			b:        Location{Country: "de", City: strPtr("berlin")},
			expected: true,
		},
		{
			name:     "same country different city",
			a:        Location{Country: "DE", City: strPtr("Berlin")},
			b:        Location{Country: "DE", City: strPtr("Munich")},
			expected: false,
		},
		{
			name:     "same city name different country",
			a:        Location{Country: "US", City: strPtr("Paris")},
			b:        Location{Country: "FR", City: strPtr("Paris")},
			expected: false,
		},
		{
			name:     "missing city on one side",
			a:        Location{Country: "DE", City: strPtr("Berlin")},
			b:        Location{Country: "DE"},
			expected: false,
		},
		{
			name:     "missing city on both sides",
			a:        Location{Country: "DE"},
			b:        Location{Country: "DE"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.SameCity(tt.b))
		})
	}
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidFulfillmentKind(FulfillmentDelivery))
	assert.True(t, IsValidFulfillmentKind(FulfillmentInStore))
	assert.True(t, IsValidFulfillmentKind(FulfillmentPersonToPerson))
	assert.False(t, IsValidFulfillmentKind(FulfillmentKind("pickup")))

	assert.True(t, IsValidCondition(ConditionNew))
	assert.True(t, IsValidCondition(ConditionUsed))
	assert.False(t, IsValidCondition(Condition("refurbished")))

	assert.True(t, IsValidModerationStatus(StatusPending))
	assert.True(t, IsValidModerationStatus(StatusApproved))
	assert.True(t, IsValidModerationStatus(StatusRejected))
	assert.False(t, IsValidModerationStatus(ModerationStatus("archived")))

	assert.True(t, IsValidReviewDecision(DecisionApprove))
	assert.True(t, IsValidReviewDecision(DecisionReject))
	assert.False(t, IsValidReviewDecision(ReviewDecision("escalate")))
}
