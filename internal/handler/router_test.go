package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/eduport/center-api/pkg/config"
)

func TestRouterRegistersDocumentedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&config.Config{}, zap.NewNop(), nil, nil, Handlers{})

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	expected := []string{
		http.MethodPut + " /api/v1/centers/:id/status",
		http.MethodPatch + " /api/v1/centers/:id/status",
		http.MethodPost + " /api/v1/results/publish",
		http.MethodGet + " /api/v1/results/:session_id/:class_id",
		http.MethodPost + " /api/v1/attendances/bulk",
		http.MethodPost + " /api/v1/marks/bulk",
		http.MethodGet + " /health",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
}
