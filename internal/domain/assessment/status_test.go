package assessment

import (
	"errors"
	"testing"
)

func TestApplyValidTransitions(t *testing.T) {
	tests := []struct {
		name       string
		from       Status
		ev         Event
		wantTo     Status
		wantNotify bool
		wantReason *string
	}{
		{"payment completes draft", StatusDraft, PaymentCaptured(), StatusCompleted, false, nil},
		{"approve prescribes", StatusCompleted, Approve(), StatusPrescribed, true, nil},
		{"reset re-reviews", StatusDenied, Reset(), StatusCompleted, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Apply(tt.from, tt.ev)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if tr.To != tt.wantTo {
				t.Errorf("To = %s, want %s", tr.To, tt.wantTo)
			}
			if tr.Notify != tt.wantNotify {
				t.Errorf("Notify = %v, want %v", tr.Notify, tt.wantNotify)
			}
			if tr.DenialReason != nil {
				t.Errorf("DenialReason = %q, want nil", *tr.DenialReason)
			}
		})
	}
}

func TestApplyDenyRequiresReason(t *testing.T) {
	if _, err := Apply(StatusCompleted, Deny("")); !errors.Is(err, ErrDenialReasonRequired) {
		t.Errorf("Deny(\"\") err = %v, want ErrDenialReasonRequired", err)
	}

	tr, err := Apply(StatusCompleted, Deny("allergy"))
	if err != nil {
		t.Fatalf("Deny(allergy): %v", err)
	}
	if tr.To != StatusDenied {
		t.Errorf("To = %s, want denied", tr.To)
	}
	if tr.DenialReason == nil || *tr.DenialReason != "allergy" {
		t.Errorf("DenialReason = %v, want allergy", tr.DenialReason)
	}
	if !tr.Notify {
		t.Error("deny must notify the patient")
	}
}

func TestApplyRejectsInvalidPairs(t *testing.T) {
	invalid := []struct {
		from Status
		ev   Event
	}{
		{StatusDraft, Approve()},
		{StatusDraft, Deny("x")},
		{StatusDraft, Reset()},
		{StatusCompleted, PaymentCaptured()},
		{StatusCompleted, Reset()},
		{StatusPrescribed, Approve()},
		{StatusPrescribed, Deny("x")},
		{StatusPrescribed, Reset()},
		{StatusPrescribed, PaymentCaptured()},
		{StatusDenied, Approve()},
		{StatusDenied, Deny("x")},
		{StatusDenied, PaymentCaptured()},
	}
	for _, tt := range invalid {
		if _, err := Apply(tt.from, tt.ev); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Apply(%s, %s) err = %v, want ErrInvalidTransition", tt.from, tt.ev.Kind, err)
		}
	}
}

func TestApplyResetClearsReason(t *testing.T) {
	tr, err := Apply(StatusDenied, Reset())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tr.DenialReason != nil {
		t.Errorf("reset must clear denial_reason, got %q", *tr.DenialReason)
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"draft", "completed", "prescribed", "denied"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("ParseStatus(%q): %v", valid, err)
		}
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Error("expected error for unknown status")
	}
}
