package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// MarkHandler exposes exam mark endpoints.
type MarkHandler struct {
	marks *service.MarkService
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(marks *service.MarkService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// List returns marks visible to the principal.
func (h *MarkHandler) List(c *gin.Context) {
	filter := models.MarkFilter{
		CenterID:  c.Query("center_id"),
		StudentID: c.Query("student_id"),
		SubjectID: c.Query("subject_id"),
		SessionID: c.Query("session_id"),
		ExamType:  c.Query("exam_type"),
	}
	marks, err := h.marks.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, marks, "ok")
}

// Get returns one mark.
func (h *MarkHandler) Get(c *gin.Context) {
	mark, err := h.marks.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, mark, "ok")
}

// ListByStudent returns a student's marks with subject details.
func (h *MarkHandler) ListByStudent(c *gin.Context) {
	marks, err := h.marks.ListByStudent(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, marks, "ok")
}

// ListBySubject returns all marks entered for one subject.
func (h *MarkHandler) ListBySubject(c *gin.Context) {
	marks, err := h.marks.ListBySubject(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, marks, "ok")
}

// Create enters one mark.
func (h *MarkHandler) Create(c *gin.Context) {
	var req service.CreateMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mark, err := h.marks.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mark, "mark entered")
}

// Bulk enters many marks, all-or-nothing.
func (h *MarkHandler) Bulk(c *gin.Context) {
	var req service.BulkMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	marks, err := h.marks.Bulk(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, marks, "marks entered")
}

// Update corrects a mark.
func (h *MarkHandler) Update(c *gin.Context) {
	var req service.UpdateMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mark, err := h.marks.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, mark, "mark updated")
}

// Delete removes a mark.
func (h *MarkHandler) Delete(c *gin.Context) {
	if err := h.marks.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "mark deleted")
}
