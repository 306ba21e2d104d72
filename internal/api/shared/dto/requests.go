package dto

// SubmitObservationRequest is the request body for POST /observations.
// Either product_id (existing product) or product_name (brand-new product,
// created with the observation) must be present.
type SubmitObservationRequest struct {
	ProductID   string  `json:"product_id"`
	ProductName *string `json:"product_name,omitempty"`
	StoreID     *string `json:"store_id,omitempty"`
	StoreName   *string `json:"store_name,omitempty"`
	SourceLabel *string `json:"source_label,omitempty"`

	Price        float64  `json:"price" binding:"required,gt=0"`
	Currency     string   `json:"currency" binding:"required,len=3"`
	ItemPrice    *float64 `json:"item_price,omitempty"`
	ShippingCost *float64 `json:"shipping_cost,omitempty"`
	Fees         *float64 `json:"fees,omitempty"`
	FinalPrice   bool     `json:"is_final_price"`

	Country string  `json:"country" binding:"required"`
	City    *string `json:"city,omitempty"`

	Fulfillment string `json:"fulfillment" binding:"required"`
	Condition   string `json:"condition" binding:"required"`
}

// ReviewObservationRequest is the request body for POST /observations/:id/review
type ReviewObservationRequest struct {
	Decision string  `json:"decision" binding:"required"`
	Reason   *string `json:"reason,omitempty"`
}
