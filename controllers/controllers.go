// Package controllers holds the gin handlers. Handlers bind and validate
// the request, call a service, and translate errors through respondError;
// business rules live in the services package.
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"bazario/models"
	"bazario/repository"
	"bazario/services"
)

func respondError(c *gin.Context, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": stockErr.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, repository.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": "email already in use"})
	case errors.Is(err, repository.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"message": "insufficient stock"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, models.ErrUnknownRole),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrTotalMismatch),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrNotVendor),
		errors.Is(err, services.ErrOrderNotPayable),
		errors.Is(err, services.ErrPaymentIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	default:
		// raw error text stays in the logs
		logrus.WithError(err).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
