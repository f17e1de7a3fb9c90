package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// FeeStructureHandler exposes fee schedule endpoints.
type FeeStructureHandler struct {
	fees *service.FeeStructureService
}

// NewFeeStructureHandler constructs FeeStructureHandler.
func NewFeeStructureHandler(fees *service.FeeStructureService) *FeeStructureHandler {
	return &FeeStructureHandler{fees: fees}
}

// List returns fee schedules visible to the principal.
func (h *FeeStructureHandler) List(c *gin.Context) {
	filter := models.FeeStructureFilter{
		CenterID:  c.Query("center_id"),
		ClassID:   c.Query("class_id"),
		SessionID: c.Query("session_id"),
	}
	fees, err := h.fees.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fees, "ok")
}

// Get returns one fee schedule.
func (h *FeeStructureHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fee, "ok")
}

// Create defines a fee schedule.
func (h *FeeStructureHandler) Create(c *gin.Context) {
	var req service.CreateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee, "fee structure created")
}

// Update alters a fee schedule.
func (h *FeeStructureHandler) Update(c *gin.Context) {
	var req service.UpdateFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fee, "fee structure updated")
}

// Delete removes a fee schedule.
func (h *FeeStructureHandler) Delete(c *gin.Context) {
	if err := h.fees.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "fee structure deleted")
}
