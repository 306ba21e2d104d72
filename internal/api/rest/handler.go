package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omribarmats/pricegit/internal/api/middleware"
	"github.com/omribarmats/pricegit/internal/api/shared/dto"
	apierrors "github.com/omribarmats/pricegit/internal/api/shared/errors"
	"github.com/omribarmats/pricegit/internal/api/shared/executor"
	"github.com/omribarmats/pricegit/internal/domain"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// SubmitObservation records a new price observation from the acting user
	// POST /api/v1/observations
	SubmitObservation(c *gin.Context)

	// ReviewObservation applies a moderation decision to a pending observation
	// POST /api/v1/observations/:id/review
	ReviewObservation(c *gin.Context)

	// GetObservation retrieves one observation; pending and rejected rows are
	// only visible to their submitter and to moderators
	// GET /api/v1/observations/:id
	GetObservation(c *gin.Context)

	// GetModerationTrail retrieves the audit journal for an observation
	// (moderator only)
	// GET /api/v1/observations/:id/events
	GetModerationTrail(c *gin.Context)

	// GetProductObservations lists a product's observations visible to the
	// acting user, including their own pending and rejected submissions
	// GET /api/v1/products/:id/observations
	GetProductObservations(c *gin.Context)

	// GetRankedPrices returns the canonical price groups for one product,
	// ranked by relevance to the shopper's location
	// GET /api/v1/products/:id/prices?country=<cc>&city=<city>&filter.country=<cc>&filter.city=<city>&filter.fulfillment=<kind>&filter.condition=<cond>
	GetRankedPrices(c *gin.Context)

	// GetRankedPricesBulk ranks several products in one call
	// GET /api/v1/prices?product_id=<id1>,<id2>&country=<cc>&city=<city>
	GetRankedPricesBulk(c *gin.Context)

	// DetachUser reassigns a deleted user's observations to the sentinel
	// submitter (requires authentication via API key)
	// POST /api/v1/users/:id/detach
	DetachUser(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(exec executor.Executor) Handler {
	return &handler{executor: exec}
}

// SubmitObservation records a new price observation from the acting user
func (h *handler) SubmitObservation(c *gin.Context) {
	var req dto.SubmitObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if !domain.IsValidFulfillmentKind(domain.FulfillmentKind(req.Fulfillment)) {
		respondValidationError(c, "invalid fulfillment kind: "+req.Fulfillment)
		return
	}
	if !domain.IsValidCondition(domain.Condition(req.Condition)) {
		respondValidationError(c, "invalid condition: "+req.Condition)
		return
	}

	userID, role := middleware.ActingUser(c)

	resp, err := h.executor.Submit(c.Request.Context(), executor.SubmitInput{
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		StoreID:       req.StoreID,
		StoreName:     req.StoreName,
		SourceLabel:   req.SourceLabel,
		Price:         req.Price,
		Currency:      req.Currency,
		ItemPrice:     req.ItemPrice,
		ShippingCost:  req.ShippingCost,
		Fees:          req.Fees,
		FinalPrice:    req.FinalPrice,
		Country:       req.Country,
		City:          req.City,
		Fulfillment:   domain.FulfillmentKind(req.Fulfillment),
		Condition:     domain.Condition(req.Condition),
		SubmitterID:   userID,
		SubmitterRole: role,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ReviewObservation applies a moderation decision to a pending observation
func (h *handler) ReviewObservation(c *gin.Context) {
	observationID := c.Param("id")
	if observationID == "" {
		respondBadRequest(c, "Observation ID is required")
		return
	}

	var req dto.ReviewObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	if !domain.IsValidReviewDecision(domain.ReviewDecision(req.Decision)) {
		respondValidationError(c, "invalid decision: "+req.Decision)
		return
	}

	userID, role := middleware.ActingUser(c)
	if !role.CanModerate() {
		c.JSON(http.StatusForbidden,
			apierrors.NewForbiddenError("Moderator role required"))
		return
	}

	resp, err := h.executor.Review(c.Request.Context(), executor.ReviewInput{
		ObservationID: observationID,
		ReviewerID:    userID,
		Decision:      domain.ReviewDecision(req.Decision),
		Reason:        req.Reason,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetObservation retrieves one observation
func (h *handler) GetObservation(c *gin.Context) {
	observationID := c.Param("id")
	if observationID == "" {
		respondBadRequest(c, "Observation ID is required")
		return
	}

	userID, role := middleware.ActingUser(c)

	resp, err := h.executor.GetObservation(c.Request.Context(), observationID, userID, role.CanModerate())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetModerationTrail retrieves the audit journal for an observation
func (h *handler) GetModerationTrail(c *gin.Context) {
	observationID := c.Param("id")
	if observationID == "" {
		respondBadRequest(c, "Observation ID is required")
		return
	}

	_, role := middleware.ActingUser(c)
	if !role.CanModerate() {
		c.JSON(http.StatusForbidden,
			apierrors.NewForbiddenError("Moderator role required"))
		return
	}

	resp, err := h.executor.ModerationTrail(c.Request.Context(), observationID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProductObservations lists a product's observations visible to the user
func (h *handler) GetProductObservations(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		respondBadRequest(c, "Product ID is required")
		return
	}

	userID, role := middleware.ActingUser(c)

	resp, err := h.executor.ProductObservations(c.Request.Context(), productID, userID, role.CanModerate())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRankedPrices returns the ranked canonical price groups for one product
func (h *handler) GetRankedPrices(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		respondBadRequest(c, "Product ID is required")
		return
	}

	queryParams, err := ParseRankedPricesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}
	if err := queryParams.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	resp, err := h.executor.RankedPrices(
		c.Request.Context(),
		productID,
		queryParams.ShopperLocation(),
		queryParams.Filters(),
	)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetRankedPricesBulk ranks several products in one call
func (h *handler) GetRankedPricesBulk(c *gin.Context) {
	queryParams, err := ParseBulkPricesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	resp, err := h.executor.RankedPricesBulk(
		c.Request.Context(),
		queryParams.ProductIDs,
		queryParams.ShopperLocation(),
	)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DetachUser reassigns a deleted user's observations to the sentinel submitter
func (h *handler) DetachUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		respondBadRequest(c, "User ID is required")
		return
	}
	if userID == domain.DeletedUserID {
		respondValidationError(c, "cannot detach the sentinel user")
		return
	}

	resp, err := h.executor.DetachUser(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
