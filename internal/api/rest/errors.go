package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/omribarmats/pricegit/internal/api/shared/errors"
	"github.com/omribarmats/pricegit/internal/domain"
	"github.com/omribarmats/pricegit/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondDomainError maps the core's typed errors to HTTP responses. Retrying
// (e.g. refetch-and-retry on a lost review race) is left to the caller.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict,
			apierrors.NewDuplicateSubmissionError("You already reported this product recently"))
	case errors.Is(err, domain.ErrObservationNotFound):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Observation not found"))
	case errors.Is(err, domain.ErrSelfReview):
		c.JSON(http.StatusForbidden,
			apierrors.NewForbiddenError("You cannot review your own submission"))
	case errors.Is(err, domain.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict,
			apierrors.NewAlreadyReviewedError("Observation was already reviewed"))
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		c.JSON(http.StatusUnprocessableEntity,
			apierrors.NewValidationError("a rejection requires a reason"))
	case errors.Is(err, domain.ErrStoreReferenceMissing):
		c.JSON(http.StatusUnprocessableEntity,
			apierrors.NewValidationError("a store id, store name, or source label is required"))
	case errors.Is(err, domain.ErrProductReferenceMissing):
		c.JSON(http.StatusUnprocessableEntity,
			apierrors.NewValidationError("a product id or a product name for a new product is required"))
	default:
		logger.ErrorCtx(c.Request.Context(), err, zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError,
			apierrors.NewInternalError("Internal server error"))
	}
}
