package dto

import "time"

// ObservationResponse is the public representation of one price observation
type ObservationResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	StoreID     *string `json:"store_id,omitempty"`
	StoreName   *string `json:"store_name,omitempty"`
	SourceLabel *string `json:"source_label,omitempty"`

	Price        float64  `json:"price"`
	Currency     string   `json:"currency"`
	ItemPrice    *float64 `json:"item_price,omitempty"`
	ShippingCost *float64 `json:"shipping_cost,omitempty"`
	Fees         *float64 `json:"fees,omitempty"`
	FinalPrice   bool     `json:"is_final_price"`

	Country string  `json:"country"`
	City    *string `json:"city,omitempty"`

	Fulfillment string `json:"fulfillment"`
	Condition   string `json:"condition"`

	SubmittedBy     string     `json:"submitted_by"`
	Status          string     `json:"status"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// SubmitResponse is returned after a successful submission. ProductID echoes
// the submitted product id, or the freshly created one for brand-new products.
type SubmitResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

// PriceGroupResponse is one canonical price group: the current record plus
// its observation history, newest first
type PriceGroupResponse struct {
	Current ObservationResponse   `json:"current"`
	History []ObservationResponse `json:"history,omitempty"`
}

// RankedPricesResponse is the ranked price view for one product
type RankedPricesResponse struct {
	ProductID     string               `json:"product_id"`
	Records       []PriceGroupResponse `json:"records"`
	TotalCount    int                  `json:"total_count"`
	FilteredCount int                  `json:"filtered_count"`
}

// BulkRankedPricesResponse is the response for the bulk price query
type BulkRankedPricesResponse struct {
	Products map[string]*RankedPricesResponse `json:"products"`
}

// ProductObservationsResponse lists the observations for one product visible
// to the requesting user
type ProductObservationsResponse struct {
	ProductID    string                `json:"product_id"`
	Observations []ObservationResponse `json:"observations"`
}

// ModerationEventResponse is one entry of an observation's audit journal
type ModerationEventResponse struct {
	ID            uint64    `json:"id"`
	ObservationID string    `json:"observation_id"`
	ChangedAt     time.Time `json:"changed_at"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	ReviewedBy    string    `json:"reviewed_by"`
	Reason        *string   `json:"reason,omitempty"`
	AutoApproved  bool      `json:"auto_approved,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ModerationEventsResponse is the audit journal for one observation,
// oldest first
type ModerationEventsResponse struct {
	ObservationID string                    `json:"observation_id"`
	Events        []ModerationEventResponse `json:"events"`
}

// DetachUserResponse reports how many observations were reassigned to the
// deleted-user sentinel
type DetachUserResponse struct {
	Reassigned int64 `json:"reassigned"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status string `json:"status"`
}
