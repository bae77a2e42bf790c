package payment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"perle-storefront/internal/domain"
)

// State is a PaymentConfirmationFlow state.
type State string

const (
	StateInit             State = "init"
	StateSessionCreated   State = "session_created"
	StateAwaitingExternal State = "awaiting_external_action"
	StatePolling          State = "polling"
	StateSuccess          State = "success"
	StateCancelled        State = "cancelled"
	StateFailedToStart    State = "failed_to_start"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateCancelled || s == StateFailedToStart
}

// Reason explains a cancelled outcome. It selects the copy on the cancelled page only.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonCancelled Reason = "cancelled"
	ReasonFailed    Reason = "failed"
	ReasonTimeout   Reason = "timeout"
)

// ParseReason maps a query value to a Reason, defaulting to cancelled.
func ParseReason(v string) Reason {
	switch Reason(strings.ToLower(strings.TrimSpace(v))) {
	case ReasonFailed:
		return ReasonFailed
	case ReasonTimeout:
		return ReasonTimeout
	default:
		return ReasonCancelled
	}
}

// EventKind enumerates inputs to the flow.
type EventKind int

const (
	EventSessionCreated EventKind = iota + 1
	EventSessionFailed
	EventRedirected
	EventReturned
	EventStatusObserved
	EventTimedOut
)

// Event is one input to Flow.Next.
type Event struct {
	Kind      EventKind
	Reference string
	Status    domain.PaymentStatus
}

var ErrInvalidTransition = errors.New("invalid payment flow transition")

// Flow is the state of one checkout attempt. Next is pure; callers own side effects.
type Flow struct {
	State     State
	Reference string
	Reason    Reason
}

// NewFlow returns a flow in the init state.
func NewFlow() Flow {
	return Flow{State: StateInit}
}

// Resume returns a flow that has just regained control from the external payment page.
func Resume(reference string) Flow {
	return Flow{State: StatePolling, Reference: reference}
}

// Next computes the state that follows ev.
func (f Flow) Next(ev Event) (Flow, error) {
	switch f.State {
	case StateInit:
		switch ev.Kind {
		case EventSessionCreated:
			if ev.Reference == "" {
				return f, fmt.Errorf("%w: session without reference", ErrInvalidTransition)
			}
			return Flow{State: StateSessionCreated, Reference: ev.Reference}, nil
		case EventSessionFailed:
			return Flow{State: StateFailedToStart}, nil
		}
	case StateSessionCreated:
		if ev.Kind == EventRedirected {
			return Flow{State: StateAwaitingExternal, Reference: f.Reference}, nil
		}
	case StateAwaitingExternal:
		if ev.Kind == EventReturned {
			return Flow{State: StatePolling, Reference: f.Reference}, nil
		}
	case StatePolling:
		switch ev.Kind {
		case EventStatusObserved:
			switch ev.Status {
			case domain.PaymentPaid:
				return Flow{State: StateSuccess, Reference: f.Reference}, nil
			case domain.PaymentCancelled:
				return Flow{State: StateCancelled, Reference: f.Reference, Reason: ReasonCancelled}, nil
			case domain.PaymentFailed:
				return Flow{State: StateCancelled, Reference: f.Reference, Reason: ReasonFailed}, nil
			default:
				return f, nil
			}
		case EventTimedOut:
			return Flow{State: StateCancelled, Reference: f.Reference, Reason: ReasonTimeout}, nil
		}
	}
	return f, fmt.Errorf("%w: %s on event %d", ErrInvalidTransition, f.State, ev.Kind)
}

var referencePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateReference rejects empty or malformed references before any polling starts.
func ValidateReference(reference string) error {
	if !referencePattern.MatchString(reference) {
		return domain.ErrInvalidReference
	}
	return nil
}
