package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// CenterHandler exposes center endpoints.
type CenterHandler struct {
	centers *service.CenterService
}

// NewCenterHandler constructs CenterHandler.
func NewCenterHandler(centers *service.CenterService) *CenterHandler {
	return &CenterHandler{centers: centers}
}

// List returns centers visible to the principal.
func (h *CenterHandler) List(c *gin.Context) {
	var filter models.CenterFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := c.Query("status"); status != "" {
		s := models.CenterStatus(status)
		if !s.Valid() {
			response.Error(c, appErrors.Validation("validation failed", map[string][]string{
				"status": {"must be one of: active pending suspended"},
			}))
			return
		}
		filter.Status = &s
	}
	centers, err := h.centers.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, centers, "ok")
}

// Get returns one center.
func (h *CenterHandler) Get(c *gin.Context) {
	center, err := h.centers.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, center, "ok")
}

// Create registers a new center.
func (h *CenterHandler) Create(c *gin.Context) {
	var req service.CreateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	center, err := h.centers.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, center, "center created")
}

// Update replaces a center's mutable fields.
func (h *CenterHandler) Update(c *gin.Context) {
	var req service.UpdateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	center, err := h.centers.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, center, "center updated")
}

// UpdateStatus transitions a center's lifecycle state.
func (h *CenterHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateCenterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	center, err := h.centers.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, center, "center status updated")
}

// Delete removes a center.
func (h *CenterHandler) Delete(c *gin.Context) {
	if err := h.centers.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "center deleted")
}
