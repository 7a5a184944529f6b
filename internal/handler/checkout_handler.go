package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/service"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *zap.Logger
}

func NewCheckoutHandler(checkout *service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		logger:   logger,
	}
}

// Checkout runs the reservation transaction for the submitted cart.
// Reservation failures come back as one aggregate error naming the
// offending line; a conflict is retryable by resubmitting.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), req)
	if err != nil {
		var resErr *domain.ReservationError
		switch {
		case errors.As(err, &resErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": resErr.Error(),
			})
		case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, domain.ErrTransactionConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Checkout conflicted with another purchase, please try again",
			})
		case errors.Is(err, service.ErrPaymentUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Payment is temporarily unavailable",
			})
		default:
			h.logger.Error("Checkout failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Checkout failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
