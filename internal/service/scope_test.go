package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin, Email: "admin@example.com"}
}

func centerClaims(centerID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleCenter, CenterID: strPtr(centerID), Email: "center@example.com"}
}

func TestEffectiveCenterAdminPassthrough(t *testing.T) {
	centerID, err := effectiveCenter(adminClaims(), "center-9")
	require.NoError(t, err)
	assert.Equal(t, "center-9", centerID)

	centerID, err = effectiveCenter(adminClaims(), "")
	require.NoError(t, err)
	assert.Empty(t, centerID)
}

func TestEffectiveCenterPinsNonAdmin(t *testing.T) {
	centerID, err := effectiveCenter(centerClaims("center-1"), "center-9")
	require.NoError(t, err)
	assert.Equal(t, "center-1", centerID)
}

func TestEffectiveCenterNilClaims(t *testing.T) {
	_, err := effectiveCenter(nil, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
}

func TestEffectiveCenterPrincipalWithoutCenter(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleCenter}
	_, err := effectiveCenter(claims, "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
}

func TestAuthorizeRecordForeignCenterForbidden(t *testing.T) {
	err := authorizeRecord(centerClaims("center-1"), "center-2")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "record belongs to another center", appErr.Message)
}

func TestAuthorizeRecordOwnCenter(t *testing.T) {
	require.NoError(t, authorizeRecord(centerClaims("center-1"), "center-1"))
}

func TestAuthorizeRecordAdminBypassesScope(t *testing.T) {
	require.NoError(t, authorizeRecord(adminClaims(), "center-2"))
}

func TestRequireAdmin(t *testing.T) {
	require.NoError(t, requireAdmin(adminClaims()))

	err := requireAdmin(centerClaims("center-1"))
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	err = requireAdmin(nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}
