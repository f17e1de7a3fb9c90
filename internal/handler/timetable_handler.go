package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/models"
	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// TimetableHandler exposes timetable upload and download endpoints.
type TimetableHandler struct {
	timetables *service.TimetableService
}

// NewTimetableHandler constructs TimetableHandler.
func NewTimetableHandler(timetables *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables}
}

// List returns timetables visible to the principal.
func (h *TimetableHandler) List(c *gin.Context) {
	filter := models.TimetableFilter{
		CenterID:  c.Query("center_id"),
		ClassID:   c.Query("class_id"),
		SessionID: c.Query("session_id"),
	}
	timetables, err := h.timetables.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, timetables, "ok")
}

// Get returns one timetable record.
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.timetables.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, timetable, "ok")
}

// Upload stores a schedule document. Expects multipart form data with a
// "file" part plus class_id, session_id and title fields.
func (h *TimetableHandler) Upload(c *gin.Context) {
	var req service.UploadTimetableRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation("validation failed", map[string][]string{
			"file": {"this field is required"},
		}))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	timetable, err := h.timetables.Upload(c.Request.Context(), claimsFromContext(c), req, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, timetable, "timetable uploaded")
}

// Download streams the stored document.
func (h *TimetableHandler) Download(c *gin.Context) {
	timetable, file, err := h.timetables.Download(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	name := fmt.Sprintf("%s%s", timetable.Title, filepath.Ext(timetable.FilePath))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", "application/octet-stream")
	c.File(file.Name())
}

// Delete removes the record and its stored document.
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.timetables.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "timetable deleted")
}
