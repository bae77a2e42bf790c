package payment

import (
	"errors"
	"testing"

	"perle-storefront/internal/domain"
)

func TestFlowHappyPath(t *testing.T) {
	f := NewFlow()
	steps := []struct {
		ev   Event
		want State
	}{
		{Event{Kind: EventSessionCreated, Reference: "PRL-1"}, StateSessionCreated},
		{Event{Kind: EventRedirected}, StateAwaitingExternal},
		{Event{Kind: EventReturned}, StatePolling},
		{Event{Kind: EventStatusObserved, Status: domain.PaymentPending}, StatePolling},
		{Event{Kind: EventStatusObserved, Status: domain.PaymentPaid}, StateSuccess},
	}
	for i, step := range steps {
		next, err := f.Next(step.ev)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next.State != step.want {
			t.Fatalf("step %d: got %s want %s", i, next.State, step.want)
		}
		if next.Reference != "PRL-1" {
			t.Fatalf("step %d: reference changed to %q", i, next.Reference)
		}
		f = next
	}
}

func TestFlowCancelledReasons(t *testing.T) {
	cases := []struct {
		ev     Event
		reason Reason
	}{
		{Event{Kind: EventStatusObserved, Status: domain.PaymentCancelled}, ReasonCancelled},
		{Event{Kind: EventStatusObserved, Status: domain.PaymentFailed}, ReasonFailed},
		{Event{Kind: EventTimedOut}, ReasonTimeout},
	}
	for _, tc := range cases {
		got, err := Resume("PRL-1").Next(tc.ev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.State != StateCancelled || got.Reason != tc.reason {
			t.Fatalf("got %+v want cancelled/%s", got, tc.reason)
		}
	}
}

func TestFlowFailedToStart(t *testing.T) {
	got, err := NewFlow().Next(Event{Kind: EventSessionFailed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != StateFailedToStart || !got.State.Terminal() {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestFlowRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		from Flow
		ev   Event
	}{
		{NewFlow(), Event{Kind: EventStatusObserved, Status: domain.PaymentPaid}},
		{NewFlow(), Event{Kind: EventSessionCreated}},
		{Flow{State: StateSessionCreated, Reference: "r"}, Event{Kind: EventReturned}},
		{Flow{State: StateSuccess, Reference: "r"}, Event{Kind: EventTimedOut}},
		{Flow{State: StateCancelled, Reference: "r"}, Event{Kind: EventStatusObserved, Status: domain.PaymentPaid}},
	}
	for i, tc := range cases {
		got, err := tc.from.Next(tc.ev)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("case %d: expected ErrInvalidTransition, got %v", i, err)
		}
		if got != tc.from {
			t.Fatalf("case %d: state changed on invalid transition", i)
		}
	}
}

func TestValidateReference(t *testing.T) {
	for _, ok := range []string{"PRL-TEST-1", "abc", "a.b_c-9"} {
		if err := ValidateReference(ok); err != nil {
			t.Fatalf("%q: unexpected error %v", ok, err)
		}
	}
	for _, bad := range []string{"", " ", "-lead", "has space", "x/y", "<script>"} {
		if err := ValidateReference(bad); !errors.Is(err, domain.ErrInvalidReference) {
			t.Fatalf("%q: expected ErrInvalidReference, got %v", bad, err)
		}
	}
}

func TestParseReason(t *testing.T) {
	if ParseReason("timeout") != ReasonTimeout || ParseReason("FAILED") != ReasonFailed {
		t.Fatalf("known reasons not parsed")
	}
	if ParseReason("") != ReasonCancelled || ParseReason("weird") != ReasonCancelled {
		t.Fatalf("unknown reasons must default to cancelled")
	}
}
