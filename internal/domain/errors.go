package domain

import "errors"

var (
	// ErrDuplicateSubmission is returned when the same submitter already has a
	// non-rejected observation for the same product inside the lookback window
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrObservationNotFound is returned when an observation is not found
	ErrObservationNotFound = errors.New("observation not found")

	// ErrSelfReview is returned when a reviewer attempts to review their own submission
	ErrSelfReview = errors.New("reviewer cannot review their own submission")

	// ErrAlreadyReviewed is returned when the observation is no longer pending
	ErrAlreadyReviewed = errors.New("observation already reviewed")

	// ErrRejectionReasonRequired is returned when a rejection carries no reason
	ErrRejectionReasonRequired = errors.New("rejection reason required")

	// ErrStoreReferenceMissing is returned when an observation carries neither
	// a store id, a store name, nor a source label
	ErrStoreReferenceMissing = errors.New("store reference missing")

	// ErrProductReferenceMissing is returned when a submission carries neither
	// an existing product id nor a name for a brand-new product
	ErrProductReferenceMissing = errors.New("product reference missing")
)
