package order

import (
	"fmt"
	"strings"

	"mensajero/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
//	Available ──claim──> Assigned ──> InTransit ──> Delivered
//
// Transitions only move forward one step at a time and Delivered is terminal.
type Status int

const (
	// Unknown is the zero value and never a valid state.
	Unknown Status = iota
	Available
	Assigned
	InTransit
	Delivered
)

var statusNames = map[Status]string{
	Unknown:   "Unknown",
	Available: "Available",
	Assigned:  "Assigned",
	InTransit: "InTransit",
	Delivered: "Delivered",
}

// transitions is the complete allowed-transition table.
var transitions = map[Status]Status{
	Available: Assigned,
	Assigned:  InTransit,
	InTransit: Delivered,
}

// statusAliases maps lower-cased names accepted by ParseStatus. The Spanish
// entries are the names older clients still send.
var statusAliases = map[string]Status{
	"available":  Available,
	"assigned":   Assigned,
	"intransit":  InTransit,
	"in_transit": InTransit,
	"delivered":  Delivered,

	"disponible": Available,
	"asignado":   Assigned,
	"en proceso": Assigned,
	"en camino":  InTransit,
	"entregado":  Delivered,
}

// AllStatuses lists the valid statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{Available, Assigned, InTransit, Delivered}
}

// ParseStatus resolves a canonical or legacy status name, ignoring case and
// surrounding whitespace.
func ParseStatus(name string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}

	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status",
		fmt.Errorf("%q is not a known status", name),
	)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusNames[Unknown]
}

func (s Status) Validate() error {
	if s < Available || s > Delivered {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	_, ok := transitions[s]
	return s.Validate() == nil && !ok
}

// CanTransitionTo reports whether the table allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	allowed, ok := transitions[s]
	return ok && allowed == next
}

// TransitionTo returns next when the move is allowed, or a
// TransitionIsInvalidError otherwise.
func (s Status) TransitionTo(next Status) (Status, error) {
	if !s.CanTransitionTo(next) {
		return s, errs.NewTransitionIsInvalidError(s, next)
	}
	return next, nil
}

// ValidateCanHaveCourier checks that a courier is set exactly when the
// status is past Available.
func (s Status) ValidateCanHaveCourier(hasCourier bool) error {
	if hasCourier && s == Available {
		return errs.NewValueIsInvalidErrorWithCause(
			"courierId",
			fmt.Errorf("%s order must not have a courier", s),
		)
	}

	if !hasCourier && s != Available {
		return errs.NewValueIsInvalidErrorWithCause(
			"courierId",
			fmt.Errorf("%s order must have a courier", s),
		)
	}

	return nil
}
