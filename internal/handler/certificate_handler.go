package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// CertificateHandler exposes certificate endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// List returns certificates visible to the principal.
func (h *CertificateHandler) List(c *gin.Context) {
	filter := models.CertificateFilter{
		CenterID:  c.Query("center_id"),
		StudentID: c.Query("student_id"),
	}
	if raw := c.Query("type"); raw != "" {
		t := models.CertificateType(raw)
		if !t.Valid() {
			response.Error(c, appErrors.Validation("validation failed", map[string][]string{
				"type": {"must be one of: completion excellence participation"},
			}))
			return
		}
		filter.Type = &t
	}
	certificates, err := h.certificates.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, certificates, "ok")
}

// Get returns one certificate.
func (h *CertificateHandler) Get(c *gin.Context) {
	certificate, err := h.certificates.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, certificate, "ok")
}

// Create issues a certificate; the PDF renders in the background.
func (h *CertificateHandler) Create(c *gin.Context) {
	var req service.CreateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	certificate, err := h.certificates.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, certificate, "certificate issued")
}

// Download streams the rendered PDF.
func (h *CertificateHandler) Download(c *gin.Context) {
	certificate, file, err := h.certificates.Download(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", certificate.Title+".pdf"))
	c.Header("Content-Type", "application/pdf")
	c.File(file.Name())
}

// Delete removes a certificate.
func (h *CertificateHandler) Delete(c *gin.Context) {
	if err := h.certificates.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "certificate deleted")
}
