package rest

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/pricing"
)

// MAX_BULK_PRODUCTS caps the number of products per bulk price query
const MAX_BULK_PRODUCTS = 50

// RankedPricesQueryParams holds query parameters for GET /products/:id/prices
type RankedPricesQueryParams struct {
	// Shopper location; either value may be absent
	Country string `form:"country"`
	City    string `form:"city"`

	// Filters narrowing the returned records (the total count stays unfiltered)
	FilterCountry     string `form:"filter.country"`
	FilterCity        string `form:"filter.city"`
	FilterFulfillment string `form:"filter.fulfillment"`
	FilterCondition   string `form:"filter.condition"`
}

// ParseRankedPricesQuery parses query parameters for GET /products/:id/prices
func ParseRankedPricesQuery(c *gin.Context) (*RankedPricesQueryParams, error) {
	var params RankedPricesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate checks filter enum values
func (p *RankedPricesQueryParams) Validate() error {
	if p.FilterFulfillment != "" && !domain.IsValidFulfillmentKind(domain.FulfillmentKind(p.FilterFulfillment)) {
		return fmt.Errorf("invalid fulfillment filter: %s", p.FilterFulfillment)
	}
	if p.FilterCondition != "" && !domain.IsValidCondition(domain.Condition(p.FilterCondition)) {
		return fmt.Errorf("invalid condition filter: %s", p.FilterCondition)
	}
	return nil
}

// ShopperLocation converts the query parameters to a domain location
func (p *RankedPricesQueryParams) ShopperLocation() domain.Location {
	loc := domain.Location{Country: p.Country}
	if p.City != "" {
		city := p.City
		loc.City = &city
	}
	return loc
}

// Filters converts the query parameters to ranking filters
func (p *RankedPricesQueryParams) Filters() pricing.Filters {
	return pricing.Filters{
		Country:     p.FilterCountry,
		City:        p.FilterCity,
		Fulfillment: domain.FulfillmentKind(p.FilterFulfillment),
		Condition:   domain.Condition(p.FilterCondition),
	}
}

// BulkPricesQueryParams holds query parameters for GET /prices
type BulkPricesQueryParams struct {
	ProductIDs []string `form:"product_id"`
	Country    string   `form:"country"`
	City       string   `form:"city"`
}

// ParseBulkPricesQuery parses query parameters for GET /prices,
// accepting both repeated product_id params and comma-separated lists
func ParseBulkPricesQuery(c *gin.Context) (*BulkPricesQueryParams, error) {
	var params BulkPricesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	var ids []string
	for _, raw := range params.ProductIDs {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	params.ProductIDs = ids

	if len(params.ProductIDs) == 0 {
		return nil, fmt.Errorf("at least one product_id is required")
	}
	if len(params.ProductIDs) > MAX_BULK_PRODUCTS {
		return nil, fmt.Errorf("at most %d product ids per request", MAX_BULK_PRODUCTS)
	}

	return &params, nil
}

// ShopperLocation converts the query parameters to a domain location
func (p *BulkPricesQueryParams) ShopperLocation() domain.Location {
	loc := domain.Location{Country: p.Country}
	if p.City != "" {
		city := p.City
		loc.City = &city
	}
	return loc
}
