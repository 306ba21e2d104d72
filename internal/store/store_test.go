package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

func strPtr(s string) *string { return &s }

// buildTestObservation creates a pending observation with sensible defaults
func buildTestObservation(productID, submitter string, createdAt time.Time) *schema.PriceObservation {
	return &schema.PriceObservation{
		ID:          ulid.Make().String(),
		ProductID:   productID,
		StoreName:   strPtr("MediaMarkt"),
		Price:       49.99,
		Currency:    "EUR",
		Country:     "DE",
		City:        strPtr("Berlin"),
		Fulfillment: domain.FulfillmentDelivery,
		Condition:   domain.ConditionNew,
		SubmittedBy: submitter,
		Status:      domain.StatusPending,
		CreatedAt:   createdAt,
	}
}

// buildApprovedObservation creates an observation already approved by a reviewer
func buildApprovedObservation(productID, submitter, reviewer string, createdAt time.Time) *schema.PriceObservation {
	obs := buildTestObservation(productID, submitter, createdAt)
	obs.Status = domain.StatusApproved
	obs.ReviewedBy = &reviewer
	reviewedAt := createdAt
	obs.ReviewedAt = &reviewedAt
	return obs
}

// =============================================================================
// Test: CreateObservation
// =============================================================================

func testCreateObservation(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("successful create persists the observation", func(t *testing.T) {
		obs := buildTestObservation("prod_create_1", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 24*time.Hour))

		stored, err := store.GetObservationByID(ctx, obs.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, obs.ProductID, stored.ProductID)
		assert.Equal(t, domain.StatusPending, stored.Status)
		assert.InDelta(t, 49.99, stored.Price, 0.001)
	})

	t.Run("duplicate within window is rejected", func(t *testing.T) {
		first := buildTestObservation("prod_create_2", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, first, nil, 24*time.Hour))

		second := buildTestObservation("prod_create_2", "user_1", now.Add(time.Hour))
		err := store.CreateObservation(ctx, second, nil, 24*time.Hour)
		assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	})

	t.Run("duplicate outside window is accepted", func(t *testing.T) {
		first := buildTestObservation("prod_create_3", "user_1", now.Add(-25*time.Hour))
		require.NoError(t, store.CreateObservation(ctx, first, nil, 24*time.Hour))

		second := buildTestObservation("prod_create_3", "user_1", now)
		assert.NoError(t, store.CreateObservation(ctx, second, nil, 24*time.Hour))
	})

	t.Run("rejected earlier submission does not block resubmission", func(t *testing.T) {
		first := buildTestObservation("prod_create_4", "user_1", now.Add(-time.Hour))
		first.Status = domain.StatusRejected
		first.RejectionReason = strPtr("typo in price")
		require.NoError(t, store.CreateObservation(ctx, first, nil, 0))

		second := buildTestObservation("prod_create_4", "user_1", now)
		assert.NoError(t, store.CreateObservation(ctx, second, nil, 24*time.Hour))
	})

	t.Run("other submitters and products are unaffected", func(t *testing.T) {
		first := buildTestObservation("prod_create_5", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, first, nil, 24*time.Hour))

		otherUser := buildTestObservation("prod_create_5", "user_2", now)
		assert.NoError(t, store.CreateObservation(ctx, otherUser, nil, 24*time.Hour))

		otherProduct := buildTestObservation("prod_create_6", "user_1", now)
		assert.NoError(t, store.CreateObservation(ctx, otherProduct, nil, 24*time.Hour))
	})

	t.Run("window zero disables the guard", func(t *testing.T) {
		first := buildTestObservation("prod_create_7", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, first, nil, 0))

		second := buildTestObservation("prod_create_7", "user_1", now)
		assert.NoError(t, store.CreateObservation(ctx, second, nil, 0))
	})

	t.Run("brand-new product skips the guard", func(t *testing.T) {
		first := buildTestObservation("", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, first, nil, 24*time.Hour))

		second := buildTestObservation("", "user_1", now)
		assert.NoError(t, store.CreateObservation(ctx, second, nil, 24*time.Hour))
	})

	t.Run("brand-new product is created with its first observation", func(t *testing.T) {
		product := &schema.Product{
			ID:        ulid.Make().String(),
			Name:      "Thermo Mug 500ml",
			CreatedBy: "user_1",
			CreatedAt: now,
		}
		obs := buildTestObservation("", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, product, 24*time.Hour))
		assert.Equal(t, product.ID, obs.ProductID)

		stored, err := store.GetObservationByID(ctx, obs.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, product.ID, stored.ProductID)

		// The fresh product now anchors the duplicate guard like any other
		again := buildTestObservation(product.ID, "user_1", now.Add(time.Hour))
		err = store.CreateObservation(ctx, again, nil, 24*time.Hour)
		assert.ErrorIs(t, err, domain.ErrDuplicateSubmission)
	})

	t.Run("repeat references to the same store id do not conflict", func(t *testing.T) {
		first := buildTestObservation("prod_create_9", "user_1", now)
		first.StoreID = strPtr("st_repeat_1")
		require.NoError(t, store.CreateObservation(ctx, first, nil, 0))

		second := buildTestObservation("prod_create_9", "user_2", now)
		second.StoreID = strPtr("st_repeat_1")
		assert.NoError(t, store.CreateObservation(ctx, second, nil, 0))
	})

	t.Run("auto-approved insert writes an audit row", func(t *testing.T) {
		obs := buildApprovedObservation("prod_create_8", "mod_1", "mod_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 24*time.Hour))

		events, err := store.ListModerationEvents(ctx, obs.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)

		var meta schema.ModerationChangeMeta
		require.NoError(t, json.Unmarshal(events[0].Meta, &meta))
		assert.Equal(t, domain.StatusApproved, meta.To)
		assert.Equal(t, "mod_1", meta.ReviewedBy)
		assert.True(t, meta.AutoApproved)
	})
}

// =============================================================================
// Test: GetObservationByID
// =============================================================================

func testGetObservationByID(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("returns nil for unknown id", func(t *testing.T) {
		stored, err := store.GetObservationByID(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("round-trips optional fields", func(t *testing.T) {
		obs := buildTestObservation("prod_get_1", "user_1", time.Now().UTC())
		obs.StoreID = strPtr("st_42")
		obs.ItemPrice = float64Ptr(45.00)
		obs.ShippingCost = float64Ptr(4.99)
		obs.Fees = float64Ptr(0)
		obs.FinalPrice = true
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		stored, err := store.GetObservationByID(ctx, obs.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.NotNil(t, stored.StoreID)
		assert.Equal(t, "st_42", *stored.StoreID)
		require.NotNil(t, stored.Fees)
		// Explicitly waived (0) stays distinct from unknown (nil)
		assert.Zero(t, *stored.Fees)
		assert.True(t, stored.FinalPrice)
	})
}

// =============================================================================
// Test: ListApprovedByProduct
// =============================================================================

func testListApprovedByProduct(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Two approved, one pending, one rejected, one approved for another product
	approved1 := buildApprovedObservation("prod_list_1", "user_1", "mod_1", now.Add(-2*time.Hour))
	approved2 := buildApprovedObservation("prod_list_1", "user_2", "mod_1", now.Add(-time.Hour))
	pending := buildTestObservation("prod_list_1", "user_3", now)
	rejected := buildTestObservation("prod_list_1", "user_4", now)
	rejected.Status = domain.StatusRejected
	rejected.RejectionReason = strPtr("wrong product")
	other := buildApprovedObservation("prod_list_2", "user_1", "mod_1", now)

	for _, obs := range []*schema.PriceObservation{approved1, approved2, pending, rejected, other} {
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))
	}

	observations, err := store.ListApprovedByProduct(ctx, "prod_list_1")
	require.NoError(t, err)

	require.Len(t, observations, 2)
	// Oldest first
	assert.Equal(t, approved1.ID, observations[0].ID)
	assert.Equal(t, approved2.ID, observations[1].ID)
}

// =============================================================================
// Test: ListByProductForUser
// =============================================================================

func testListByProductForUser(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	approved := buildApprovedObservation("prod_vis_1", "user_1", "mod_1", now.Add(-time.Hour))
	myPending := buildTestObservation("prod_vis_1", "user_2", now)
	theirPending := buildTestObservation("prod_vis_1", "user_3", now)

	for _, obs := range []*schema.PriceObservation{approved, myPending, theirPending} {
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))
	}

	t.Run("submitter sees approved plus own pending", func(t *testing.T) {
		observations, err := store.ListByProductForUser(ctx, "prod_vis_1", "user_2", false)
		require.NoError(t, err)

		require.Len(t, observations, 2)
		ids := []string{observations[0].ID, observations[1].ID}
		assert.ElementsMatch(t, []string{approved.ID, myPending.ID}, ids)
	})

	t.Run("stranger sees only approved", func(t *testing.T) {
		observations, err := store.ListByProductForUser(ctx, "prod_vis_1", "user_9", false)
		require.NoError(t, err)

		require.Len(t, observations, 1)
		assert.Equal(t, approved.ID, observations[0].ID)
	})

	t.Run("moderator sees everything", func(t *testing.T) {
		observations, err := store.ListByProductForUser(ctx, "prod_vis_1", "mod_1", true)
		require.NoError(t, err)
		assert.Len(t, observations, 3)
	})
}

// =============================================================================
// Test: ReviewObservation
// =============================================================================

func testReviewObservation(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("approve updates status and reviewer fields", func(t *testing.T) {
		obs := buildTestObservation("prod_rev_1", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		decidedAt := now.Add(time.Minute)
		reviewed, err := store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID: obs.ID,
			ReviewerID:    "mod_1",
			Decision:      domain.DecisionApprove,
			DecidedAt:     decidedAt,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusApproved, reviewed.Status)
		require.NotNil(t, reviewed.ReviewedBy)
		assert.Equal(t, "mod_1", *reviewed.ReviewedBy)
		require.NotNil(t, reviewed.ReviewedAt)
		assert.WithinDuration(t, decidedAt, *reviewed.ReviewedAt, time.Millisecond)
		assert.Nil(t, reviewed.RejectionReason)
	})

	t.Run("reject stores the reason", func(t *testing.T) {
		obs := buildTestObservation("prod_rev_2", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		reviewed, err := store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID:   obs.ID,
			ReviewerID:      "mod_1",
			Decision:        domain.DecisionReject,
			RejectionReason: strPtr("screenshot does not match product"),
			DecidedAt:       now.Add(time.Minute),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.StatusRejected, reviewed.Status)
		require.NotNil(t, reviewed.RejectionReason)
		assert.Equal(t, "screenshot does not match product", *reviewed.RejectionReason)
	})

	t.Run("reject without reason fails", func(t *testing.T) {
		obs := buildTestObservation("prod_rev_3", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		_, err := store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID: obs.ID,
			ReviewerID:    "mod_1",
			Decision:      domain.DecisionReject,
			DecidedAt:     now,
		})
		assert.ErrorIs(t, err, domain.ErrRejectionReasonRequired)

		// Empty string counts as missing too
		_, err = store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID:   obs.ID,
			ReviewerID:      "mod_1",
			Decision:        domain.DecisionReject,
			RejectionReason: strPtr(""),
			DecidedAt:       now,
		})
		assert.ErrorIs(t, err, domain.ErrRejectionReasonRequired)

		// The failed attempts left the row untouched
		stored, err := store.GetObservationByID(ctx, obs.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, stored.Status)
	})

	t.Run("self review is forbidden regardless of decision", func(t *testing.T) {
		obs := buildTestObservation("prod_rev_4", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		for _, decision := range []domain.ReviewDecision{domain.DecisionApprove, domain.DecisionReject} {
			_, err := store.ReviewObservation(ctx, ReviewObservationInput{
				ObservationID:   obs.ID,
				ReviewerID:      "user_1",
				Decision:        decision,
				RejectionReason: strPtr("self"),
				DecidedAt:       now,
			})
			assert.ErrorIs(t, err, domain.ErrSelfReview)
		}
	})

	t.Run("second decision loses", func(t *testing.T) {
		obs := buildTestObservation("prod_rev_5", "user_1", now)
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

		_, err := store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID: obs.ID,
			ReviewerID:    "mod_1",
			Decision:      domain.DecisionApprove,
			DecidedAt:     now,
		})
		require.NoError(t, err)

		_, err = store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID:   obs.ID,
			ReviewerID:      "mod_2",
			Decision:        domain.DecisionReject,
			RejectionReason: strPtr("disagree"),
			DecidedAt:       now.Add(time.Second),
		})
		assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)

		// The first decision stands
		stored, err := store.GetObservationByID(ctx, obs.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, stored.Status)
		assert.Equal(t, "mod_1", *stored.ReviewedBy)
	})

	t.Run("unknown observation fails not found", func(t *testing.T) {
		_, err := store.ReviewObservation(ctx, ReviewObservationInput{
			ObservationID: "does-not-exist",
			ReviewerID:    "mod_1",
			Decision:      domain.DecisionApprove,
			DecidedAt:     now,
		})
		assert.ErrorIs(t, err, domain.ErrObservationNotFound)
	})
}

// =============================================================================
// Test: ListModerationEvents
// =============================================================================

func testModerationEvents(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	obs := buildTestObservation("prod_events_1", "user_1", now)
	require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))

	// No events before a decision
	events, err := store.ListModerationEvents(ctx, obs.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = store.ReviewObservation(ctx, ReviewObservationInput{
		ObservationID:   obs.ID,
		ReviewerID:      "mod_1",
		Decision:        domain.DecisionReject,
		RejectionReason: strPtr("price expired"),
		DecidedAt:       now.Add(time.Minute),
	})
	require.NoError(t, err)

	events, err = store.ListModerationEvents(ctx, obs.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	var meta schema.ModerationChangeMeta
	require.NoError(t, json.Unmarshal(events[0].Meta, &meta))
	assert.Equal(t, obs.ID, meta.ObservationID)
	assert.Equal(t, domain.StatusPending, meta.From)
	assert.Equal(t, domain.StatusRejected, meta.To)
	assert.Equal(t, "mod_1", meta.ReviewedBy)
	require.NotNil(t, meta.Reason)
	assert.Equal(t, "price expired", *meta.Reason)
	assert.False(t, meta.AutoApproved)
}

// =============================================================================
// Test: ReassignSubmitter
// =============================================================================

func testReassignSubmitter(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	mine1 := buildTestObservation("prod_detach_1", "user_gone", now)
	mine2 := buildApprovedObservation("prod_detach_2", "user_gone", "mod_1", now)
	theirs := buildTestObservation("prod_detach_1", "user_stays", now)

	for _, obs := range []*schema.PriceObservation{mine1, mine2, theirs} {
		require.NoError(t, store.CreateObservation(ctx, obs, nil, 0))
	}

	reassigned, err := store.ReassignSubmitter(ctx, "user_gone")
	require.NoError(t, err)
	assert.Equal(t, int64(2), reassigned)

	// Rows survive under the sentinel, status untouched
	stored, err := store.GetObservationByID(ctx, mine2.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DeletedUserID, stored.SubmittedBy)
	assert.Equal(t, domain.StatusApproved, stored.Status)

	kept, err := store.GetObservationByID(ctx, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "user_stays", kept.SubmittedBy)

	// Reassigning again touches nothing
	reassigned, err = store.ReassignSubmitter(ctx, "user_gone")
	require.NoError(t, err)
	assert.Zero(t, reassigned)
}

func float64Ptr(f float64) *float64 { return &f }

// RunStoreTests runs the full store suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"CreateObservation", testCreateObservation},
		{"GetObservationByID", testGetObservationByID},
		{"ListApprovedByProduct", testListApprovedByProduct},
		{"ListByProductForUser", testListByProductForUser},
		{"ReviewObservation", testReviewObservation},
		{"ModerationEvents", testModerationEvents},
		{"ReassignSubmitter", testReassignSubmitter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
