package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is a structured error carrying a stable machine-readable code
// alongside a human-readable message. LocaleKey points at the translation
// entry used by presentation layers; the core never depends on it.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

// WithDetails appends key/value context to the message while keeping the
// code stable.
func (e *BaseError) WithDetails(details string) *BaseError {
	if details == "" {
		return e
	}
	return &BaseError{
		Code:         e.Code,
		Message:      fmt.Sprintf("%s: %s", e.Message, details),
		LocaleKey:    e.LocaleKey,
		TemplateData: e.TemplateData,
	}
}

// Is lets errors.Is match two BaseErrors by code.
func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// NewFieldRequiredError reports a missing required field.
func NewFieldRequiredError(field, localeKey string) *BaseError {
	return NewError(
		"FIELD_REQUIRED",
		fmt.Sprintf("field %q is required", field),
		localeKey,
	).WithTemplateData(map[string]string{"field": field})
}

// NewInvalidFieldError reports a field that is present but malformed.
func NewInvalidFieldError(field, reason, localeKey string) *BaseError {
	return NewError(
		"FIELD_INVALID",
		fmt.Sprintf("field %q is invalid: %s", field, reason),
		localeKey,
	).WithTemplateData(map[string]string{"field": field, "reason": reason})
}

// ValidationErrors maps struct field names to structured errors.
type ValidationErrors map[string]*BaseError

// ProcessValidatorErrors converts go-playground validator errors into
// ValidationErrors. getFieldLocaleKey resolves the locale key for a field
// and may return "" when no translation exists.
func ProcessValidatorErrors(errs validator.ValidationErrors, getFieldLocaleKey func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fieldErr := range errs {
		field := fieldErr.Field()
		localeKey := ""
		if getFieldLocaleKey != nil {
			localeKey = getFieldLocaleKey(field)
		}
		switch fieldErr.Tag() {
		case "required":
			out[field] = NewFieldRequiredError(field, localeKey)
		default:
			out[field] = NewInvalidFieldError(field, fieldErr.Tag(), localeKey)
		}
	}
	return out
}

// Flatten renders ValidationErrors as plain field → message pairs.
func (v ValidationErrors) Flatten() map[string]string {
	out := make(map[string]string, len(v))
	for field, err := range v {
		out[field] = err.Message
	}
	return out
}
