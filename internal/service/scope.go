package service

import (
	"github.com/eduport/center-api/internal/models"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

// The tenant scoping filter. Every resource service routes its visibility
// and mutation checks through these two helpers so the center boundary is
// enforced identically everywhere; skipping them on any one endpoint is a
// cross-tenant data leak.

// effectiveCenter resolves the center filter for a list/create operation.
// Admins see all centers and may filter by any requested one; everyone else
// is pinned to their own center regardless of client input.
func effectiveCenter(claims *models.JWTClaims, requested string) (string, error) {
	if claims == nil {
		return "", appErrors.ErrUnauthenticated
	}
	if claims.IsAdmin() {
		return requested, nil
	}
	if claims.CenterID == nil || *claims.CenterID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "principal has no center")
	}
	return *claims.CenterID, nil
}

// requireAdmin gates admin-only operations.
func requireAdmin(claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthenticated
	}
	if !claims.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	return nil
}

// authorizeRecord gates single-record operations (get, update, delete).
// A record that exists but belongs to another tenant yields 403, never 404.
func authorizeRecord(claims *models.JWTClaims, recordCenterID string) error {
	if claims == nil {
		return appErrors.ErrUnauthenticated
	}
	if claims.IsAdmin() {
		return nil
	}
	if claims.CenterID != nil && *claims.CenterID == recordCenterID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "record belongs to another center")
}
