package schema

import (
	"time"

	"github.com/omribarmats/pricegit/internal/domain"
)

// PriceObservation represents the price_observations table - one user-submitted
// price sighting. Rows are append-mostly: the moderation fields (status,
// reviewed_by, reviewed_at, rejection_reason) are the only columns that ever
// change after insert, and they change at most once.
type PriceObservation struct {
	// ID is a ULID, so ids sort lexicographically in creation order
	ID string `gorm:"column:id;primaryKey;type:text"`
	// ProductID references the product being priced. Empty for submissions
	// that create a brand-new product in the same request.
	ProductID string `gorm:"column:product_id;type:text;index:idx_price_observations_product_status,priority:1"`
	// StoreID is the stable store identifier, when the submitter picked a known store
	StoreID *string `gorm:"column:store_id;type:text"`
	// StoreName is the free-text store name, matched case-insensitively
	StoreName *string `gorm:"column:store_name;type:text"`
	// SourceLabel is a free-text fallback describing where the price was seen
	// (e.g. a marketplace listing), used only when no store id or name exists
	SourceLabel *string `gorm:"column:source_label;type:text"`

	// Price is the authoritative total price, even when the breakdown is absent
	Price    float64 `gorm:"column:price;type:numeric(12,2);not null"`
	Currency string  `gorm:"column:currency;type:char(3);not null"`
	// Breakdown components. Nil means unknown; 0 means explicitly waived.
	ItemPrice    *float64 `gorm:"column:item_price;type:numeric(12,2)"`
	ShippingCost *float64 `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Fees         *float64 `gorm:"column:fees;type:numeric(12,2)"`
	// FinalPrice indicates the price already includes all fees
	FinalPrice bool `gorm:"column:is_final_price;not null;default:false"`

	// Country is the capture-location country (ISO 3166-1 alpha-2).
	// Observations without it are excluded from aggregation.
	Country string  `gorm:"column:country;not null;type:text"`
	City    *string `gorm:"column:city;type:text"`

	Fulfillment domain.FulfillmentKind `gorm:"column:fulfillment;not null;type:text"`
	Condition   domain.Condition       `gorm:"column:condition;not null;type:text"`

	// SubmittedBy is the submitting user id, rewritten to the deleted-user
	// sentinel when the account is removed
	SubmittedBy string `gorm:"column:submitted_by;not null;type:text;index:idx_price_observations_submitter"`

	Status domain.ModerationStatus `gorm:"column:status;not null;type:text;default:'pending';index:idx_price_observations_product_status,priority:2"`
	// Moderation decision fields, present only after a decision
	ReviewedBy      *string    `gorm:"column:reviewed_by;type:text"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at"`
	RejectionReason *string    `gorm:"column:rejection_reason;type:text"`

	// CreatedAt orders history within a canonical group and anchors the
	// duplicate-submission lookback window
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index:idx_price_observations_created_at"`
}

// TableName specifies the table name for the PriceObservation model
func (PriceObservation) TableName() string {
	return "price_observations"
}

// CaptureLocation returns the observation's location as a domain value
func (o *PriceObservation) CaptureLocation() domain.Location {
	return domain.Location{Country: o.Country, City: o.City}
}
