package service

import (
	"github.com/eduport/center-api/internal/repository"
	appErrors "github.com/eduport/center-api/pkg/errors"
)

// mapStoreError converts known constraint signals from the store into the
// wire taxonomy; anything else becomes a server error.
func mapStoreError(err error, conflictMessage string) error {
	if repository.IsUniqueViolation(err) {
		return appErrors.Clone(appErrors.ErrConflict, conflictMessage)
	}
	if repository.IsForeignKeyViolation(err) {
		return appErrors.Clone(appErrors.ErrConflict, "operation violates a referential constraint")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store operation failed")
}
