package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bazario/middlewares"
	"bazario/services"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

type payReq struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

// Pay opens a hosted checkout session for an unpaid order.
func (ctl *PaymentController) Pay(c *gin.Context) {
	var req payReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	session, err := ctl.payments.Checkout(c.Request.Context(), middlewares.CurrentUser(c), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type confirmReq struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Success confirms a checkout session once the processor reports it paid.
func (ctl *PaymentController) Success(c *gin.Context) {
	var req confirmReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	order, err := ctl.payments.Confirm(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order paid", "order": order})
}

// Retry re-opens a checkout session for a still-unpaid order.
func (ctl *PaymentController) Retry(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order id"})
		return
	}
	session, err := ctl.payments.Retry(c.Request.Context(), middlewares.CurrentUser(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type directPayReq struct {
	OrderID int64  `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

// Direct records a non-gateway settlement such as cash on delivery.
func (ctl *PaymentController) Direct(c *gin.Context) {
	var req directPayReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	payment, err := ctl.payments.Pay(c.Request.Context(), middlewares.CurrentUser(c), req.OrderID, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "payment successful", "payment": payment})
}
