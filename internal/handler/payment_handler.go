package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// PaymentHandler exposes payment endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List returns payments visible to the principal.
func (h *PaymentHandler) List(c *gin.Context) {
	filter := models.PaymentFilter{
		CenterID:  c.Query("center_id"),
		StudentID: c.Query("student_id"),
		SessionID: c.Query("session_id"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.PaymentStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Validation("validation failed", map[string][]string{
				"status": {"must be one of: pending completed failed refunded"},
			}))
			return
		}
		filter.Status = &status
	}
	payments, err := h.payments.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payments, "ok")
}

// Get returns one payment.
func (h *PaymentHandler) Get(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment, "ok")
}

// StudentSummary returns a student's payments with the completed total.
func (h *PaymentHandler) StudentSummary(c *gin.Context) {
	summary, err := h.payments.StudentSummary(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary, "ok")
}

// Create records a payment.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment, "payment recorded")
}

// Update alters a payment.
func (h *PaymentHandler) Update(c *gin.Context) {
	var req service.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payment, "payment updated")
}

// Delete removes a payment.
func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.payments.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "payment deleted")
}
