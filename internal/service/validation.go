package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/eduport/center-api/pkg/errors"
)

// invalidPayload translates validator failures into the wire contract's
// field→message map.
func invalidPayload(err error) *appErrors.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = append(fields[name], fieldMessage(fe))
	}
	return appErrors.Validation("validation failed", fields)
}

// indexFields re-keys a Fields-bearing validation error under the given row
// prefix (e.g. "records[2]") so bulk callers can point at the offending row
// without losing the per-field messages. Other errors pass through untouched.
func indexFields(err error, prefix string) error {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) || len(appErr.Fields) == 0 {
		return err
	}
	fields := make(map[string][]string, len(appErr.Fields))
	for name, messages := range appErr.Fields {
		fields[prefix+"."+name] = messages
	}
	return appErrors.Validation(appErr.Message, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", strings.ToLower(fe.Param()))
	case "ltefield":
		return fmt.Sprintf("must be at most %s", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
