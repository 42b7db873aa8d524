package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrTransitionIsInvalid is the sentinel for lifecycle steps the current status forbids.
	ErrTransitionIsInvalid = errors.New("transition is invalid")

	// ErrVersionIsInvalid is the sentinel for compare-and-swap writes that found a newer version.
	ErrVersionIsInvalid = errors.New("version is invalid")
)

// TransitionIsInvalidError reports a rejected status change From -> To.
type TransitionIsInvalidError struct {
	From  string
	To    string
	Cause error
}

func NewTransitionIsInvalidError(from, to fmt.Stringer) *TransitionIsInvalidError {
	return &TransitionIsInvalidError{From: from.String(), To: to.String()}
}

func NewTransitionIsInvalidErrorWithCause(from, to fmt.Stringer, cause error) *TransitionIsInvalidError {
	return &TransitionIsInvalidError{From: from.String(), To: to.String(), Cause: cause}
}

func (e *TransitionIsInvalidError) Error() string {
	return withCause(fmt.Sprintf("%s: %s -> %s", ErrTransitionIsInvalid, e.From, e.To), e.Cause)
}

func (e *TransitionIsInvalidError) Unwrap() error {
	return ErrTransitionIsInvalid
}

// VersionIsInvalidError reports an optimistic concurrency conflict on ParamName.
type VersionIsInvalidError struct {
	ParamName string
	Cause     error
}

func NewVersionIsInvalidError(paramName string) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName}
}

func NewVersionIsInvalidErrorWithCause(paramName string, cause error) *VersionIsInvalidError {
	return &VersionIsInvalidError{ParamName: paramName, Cause: cause}
}

func (e *VersionIsInvalidError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrVersionIsInvalid, e.ParamName), e.Cause)
}

func (e *VersionIsInvalidError) Unwrap() error {
	return ErrVersionIsInvalid
}
