package assessment

import (
	"errors"
	"fmt"
)

// Status is the assessment lifecycle state. The set is closed.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusCompleted  Status = "completed"
	StatusPrescribed Status = "prescribed"
	StatusDenied     Status = "denied"
)

// ParseStatus validates a stored status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusCompleted, StatusPrescribed, StatusDenied:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown assessment status %q", s)
}

// EventKind identifies a lifecycle trigger.
type EventKind string

const (
	EventPaymentCaptured EventKind = "payment_captured" // draft -> completed
	EventApprove         EventKind = "approve"          // completed -> prescribed
	EventDeny            EventKind = "deny"             // completed -> denied
	EventReset           EventKind = "reset"            // denied -> completed (re-review)
)

// Event is a lifecycle trigger plus its payload. Deny carries the mandatory
// reason.
type Event struct {
	Kind   EventKind
	Reason string
}

func Approve() Event              { return Event{Kind: EventApprove} }
func Deny(reason string) Event    { return Event{Kind: EventDeny, Reason: reason} }
func Reset() Event                { return Event{Kind: EventReset} }
func PaymentCaptured() Event      { return Event{Kind: EventPaymentCaptured} }

// ErrInvalidTransition is returned when an event is not legal in the current
// status. Nothing is persisted when it is returned.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrDenialReasonRequired is returned for a Deny event with an empty reason,
// before any write is attempted.
var ErrDenialReasonRequired = errors.New("denial requires a non-empty reason")

// Transition is the validated outcome of applying an event: the new status,
// the denial reason to persist (nil clears it), and whether the patient
// should be notified by email.
type Transition struct {
	From         Status
	To           Status
	DenialReason *string
	Notify       bool
}

// Apply validates an event against the current status and returns the
// resulting transition. It is a pure function over the four-state table:
//
//	draft     --payment_captured--> completed
//	completed --approve-----------> prescribed  (notify)
//	completed --deny(reason)------> denied      (notify, reason set)
//	denied    --reset-------------> completed   (reason cleared)
//
// Every other pairing fails with ErrInvalidTransition.
func Apply(current Status, ev Event) (Transition, error) {
	switch ev.Kind {
	case EventPaymentCaptured:
		if current != StatusDraft {
			return Transition{}, fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, current)
		}
		return Transition{From: current, To: StatusCompleted}, nil

	case EventApprove:
		if current != StatusCompleted {
			return Transition{}, fmt.Errorf("%w: %s -> prescribed", ErrInvalidTransition, current)
		}
		return Transition{From: current, To: StatusPrescribed, Notify: true}, nil

	case EventDeny:
		if current != StatusCompleted {
			return Transition{}, fmt.Errorf("%w: %s -> denied", ErrInvalidTransition, current)
		}
		if ev.Reason == "" {
			return Transition{}, ErrDenialReasonRequired
		}
		reason := ev.Reason
		return Transition{From: current, To: StatusDenied, DenialReason: &reason, Notify: true}, nil

	case EventReset:
		if current != StatusDenied {
			return Transition{}, fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, current)
		}
		return Transition{From: current, To: StatusCompleted}, nil
	}
	return Transition{}, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Kind)
}
