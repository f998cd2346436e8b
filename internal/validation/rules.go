// Package validation provides custom validation rules for the application.
package validation

import (
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/orderflow/internal/errors"
)

// MaxIdempotencyKeyLength matches the width of the idempotency_keys.key column.
const MaxIdempotencyKeyLength = 255

// WrapValidationError converts jellydator validation errors into an apperrors.ValidationError
// so the HTTP layer can render per-field messages. Anything else becomes a plain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make(map[string]string, len(fieldErrs))
		collectFields("", fieldErrs, fields)
		return &apperrors.ValidationError{Fields: fields}
	}

	var internalErr validation.InternalError
	if errors.As(err, &internalErr) {
		return err
	}

	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

func collectFields(prefix string, errs validation.Errors, fields map[string]string) {
	for name, err := range errs {
		if err == nil {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			collectFields(key, nested, fields)
			continue
		}
		fields[key] = err.Error()
	}
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NotNilUUID rejects the zero UUID. Required does not catch it because uuid.UUID is an array.
var NotNilUUID = validation.By(func(value any) error {
	id, ok := value.(uuid.UUID)
	if !ok {
		return validation.NewError("validation_uuid_type", "must be a UUID")
	}
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
})

// UUIDString validates that a string parses as a UUID.
var UUIDString = validation.NewStringRuleWithError(
	func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	},
	validation.NewError("validation_uuid", "must be a valid UUID"),
)

// IdempotencyKey validates a client supplied idempotency key: printable ASCII and
// at most MaxIdempotencyKeyLength bytes.
var IdempotencyKey = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) > MaxIdempotencyKeyLength {
			return false
		}
		for _, r := range s {
			if r > unicode.MaxASCII || !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	},
	validation.NewError(
		"validation_idempotency_key",
		"must be printable ASCII of at most 255 characters",
	),
)
