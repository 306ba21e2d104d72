package store

import (
	"context"
	"time"

	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	// CreateObservation inserts a new price observation. When newProduct is
	// non-nil it is created in the same transaction and the observation is
	// attached to it; the duplicate guard is skipped since a brand-new product
	// cannot have prior submissions. When duplicateWindow is non-zero and the
	// observation references an existing product, the insert is preceded by a
	// lookback check and fails with domain.ErrDuplicateSubmission if the same
	// submitter already has a non-rejected observation for the product inside
	// the window. A referenced retail store row is created on first sight.
	CreateObservation(ctx context.Context, obs *schema.PriceObservation, newProduct *schema.Product, duplicateWindow time.Duration) error
	// GetObservationByID retrieves an observation by id, nil if not found
	GetObservationByID(ctx context.Context, id string) (*schema.PriceObservation, error)
	// ListApprovedByProduct retrieves a snapshot of all approved observations
	// for a product, oldest first
	ListApprovedByProduct(ctx context.Context, productID string) ([]schema.PriceObservation, error)
	// ListByProductForUser retrieves the observations for a product visible to
	// the given user: all approved rows, plus pending/rejected rows the user
	// submitted. Moderators see everything.
	ListByProductForUser(ctx context.Context, productID, userID string, moderator bool) ([]schema.PriceObservation, error)
	// ReviewObservation applies a moderation decision as a single conditional
	// write. Exactly one of two concurrent calls can succeed; the loser gets
	// domain.ErrAlreadyReviewed.
	ReviewObservation(ctx context.Context, input ReviewObservationInput) (*schema.PriceObservation, error)
	// ListModerationEvents retrieves the audit journal for an observation,
	// oldest first
	ListModerationEvents(ctx context.Context, observationID string) ([]schema.ModerationEvent, error)
	// ReassignSubmitter rewrites submitted_by for all of a user's observations
	// to the deleted-user sentinel and returns the number of rows touched
	ReassignSubmitter(ctx context.Context, userID string) (int64, error)
}

// ReviewObservationInput holds the parameters for a moderation decision
type ReviewObservationInput struct {
	ObservationID   string
	ReviewerID      string
	Decision        domain.ReviewDecision
	RejectionReason *string
	DecidedAt       time.Time
}
