package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduport/center-api/internal/service"
	appErrors "github.com/eduport/center-api/pkg/errors"
	"github.com/eduport/center-api/pkg/response"
)

// ResultHandler exposes result computation and publication endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// List returns publication rows visible to the principal.
func (h *ResultHandler) List(c *gin.Context) {
	results, err := h.results.List(c.Request.Context(), claimsFromContext(c), c.Query("center_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results, "ok")
}

// Publish marks a (session, class) pair as published.
func (h *ResultHandler) Publish(c *gin.Context) {
	var req service.PublishResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.Publish(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result, "result status saved")
}

// Status reports publication state for a (session, class) pair.
func (h *ResultHandler) Status(c *gin.Context) {
	info, err := h.results.Status(c.Request.Context(), claimsFromContext(c), c.Param("session_id"), c.Param("class_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, info, "ok")
}

// StudentResult computes a student's aggregate result.
func (h *ResultHandler) StudentResult(c *gin.Context) {
	result, err := h.results.StudentResult(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, "ok")
}

// Unpublish removes the publication row for a (session, class) pair.
func (h *ResultHandler) Unpublish(c *gin.Context) {
	if err := h.results.Unpublish(c.Request.Context(), claimsFromContext(c), c.Param("session_id"), c.Param("class_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "result unpublished")
}
