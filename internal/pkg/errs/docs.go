// Package errs provides standardized error types for the mensajero service.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes error types for the conditions the order lifecycle reports:
//   - ObjectNotFoundError: an order with the given id does not exist
//   - ObjectAlreadyExistsError: an order with the given id was already created
//   - TransitionIsInvalidError: the order status does not allow the requested step
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: input validation
//   - VersionIsInvalidError: a compare-and-swap write lost against a concurrent writer
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g., ErrObjectNotFound) usable with errors.Is
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method returning the sentinel
package errs

import (
	"fmt"
	"strings"
)

// sanitize flattens a value into a single log-safe line.
func sanitize(v any) string {
	s := fmt.Sprintf("%v", v)
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (cause: %s)", msg, sanitize(cause.Error()))
}
