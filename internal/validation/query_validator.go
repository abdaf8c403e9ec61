// Package validation checks dashboard queries and export requests before
// they reach the aggregation code. HTTP, WebSocket and the report CLI share it
// so the same input is rejected the same way everywhere.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "bikepulse/internal/errors"
	api "bikepulse/pkg/contracts/api/v1"
)

// QueryValidator wraps a validator configured for the api contracts
type QueryValidator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their json names.
func New() *QueryValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &QueryValidator{validate: v}
}

// Struct validates any tagged struct and converts failures to an APIError.
func (v *QueryValidator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// DashboardQuery checks date syntax, hour bounds and hour ordering. An
// inverted date range is accepted and yields an empty view.
func (v *QueryValidator) DashboardQuery(q api.DashboardQuery) error {
	if err := v.Struct(q); err != nil {
		return err
	}
	if hr := q.Hours(); !hr.Valid() {
		return apierrors.InvalidHourRange(hr.Start, hr.End)
	}
	return nil
}

// ExportRequest checks the table and format before the embedded query.
func (v *QueryValidator) ExportRequest(req api.ExportRequest) error {
	switch {
	case !contains(api.ExportTables, req.Table):
		return apierrors.UnknownTable(req.Table, api.ExportTables)
	case !contains(api.ExportFormats, req.Format):
		return apierrors.UnsupportedFormat(req.Format, api.ExportFormats)
	}
	if err := v.Struct(req); err != nil {
		return err
	}
	return v.DashboardQuery(req.DashboardQuery)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// formatFieldError formats validation error messages
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted as YYYY-MM-DD", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
