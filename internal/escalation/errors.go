package escalation

import "errors"

var (
	// ErrAlreadyAssigned means another staff member claimed the escalation
	// first. The caller should refresh and may retry against the new assignee.
	ErrAlreadyAssigned = errors.New("escalation already assigned")

	// ErrUnauthorized means the acting staff member may not perform the
	// requested transition.
	ErrUnauthorized = errors.New("staff member not authorized for this transition")

	// ErrInvalidTransition means the escalation is not in a state the
	// requested transition starts from.
	ErrInvalidTransition = errors.New("invalid escalation state transition")
)
