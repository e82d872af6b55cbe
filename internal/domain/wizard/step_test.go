package wizard

import (
	"errors"
	"testing"
	"time"

	"github.com/trimrx/trimrx/internal/domain/assessment"
)

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func draftWith(stage Step) *assessment.Assessment {
	a := &assessment.Assessment{
		Status:     assessment.StatusDraft,
		Medication: "tirzepatide",
		PlanType:   "1_month",
		Amount:     499,
	}
	order := []Step{StepHealthProfile, StepShipping}
	for _, s := range order {
		if index(s) > index(stage) {
			break
		}
		switch s {
		case StepHealthProfile:
			dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
			a.DateOfBirth = &dob
			a.Gender = str("female")
			a.WeightLbs = num(210)
			a.HeightInches = num(65)
		case StepShipping:
			a.ShippingAddress = str("1 Main St")
			a.ShippingCity = str("Austin")
			a.ShippingState = str("TX")
			a.ShippingZip = str("78701")
		}
	}
	return a
}

func TestNextHappyPath(t *testing.T) {
	a := draftWith(StepShipping) // everything filled
	want := []struct {
		from, to Step
	}{
		{StepWelcome, StepHealthProfile},
		{StepHealthProfile, StepMedication},
		{StepMedication, StepPlan},
		{StepPlan, StepShipping},
		{StepShipping, StepPayment},
	}
	for _, tc := range want {
		got, err := Next(tc.from, a)
		if err != nil {
			t.Fatalf("Next(%s): %v", tc.from, err)
		}
		if got != tc.to {
			t.Errorf("Next(%s) = %s, want %s", tc.from, got, tc.to)
		}
	}
}

func TestNextGates(t *testing.T) {
	incomplete := &assessment.Assessment{
		Status:     assessment.StatusDraft,
		Medication: "tirzepatide",
		PlanType:   "1_month",
		Amount:     499,
	}

	if _, err := Next(StepHealthProfile, incomplete); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("health_profile gate: err = %v, want ErrStepIncomplete", err)
	}
	if _, err := Next(StepShipping, incomplete); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("shipping gate: err = %v, want ErrStepIncomplete", err)
	}

	noPlan := draftWith(StepHealthProfile)
	noPlan.PlanType = ""
	noPlan.Amount = 0
	if _, err := Next(StepPlan, noPlan); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("plan gate: err = %v, want ErrStepIncomplete", err)
	}
}

func TestNextNeverSkipsPayment(t *testing.T) {
	a := draftWith(StepShipping)
	if _, err := Next(StepPayment, a); !errors.Is(err, ErrStepIncomplete) {
		t.Errorf("payment must not advance via Next, err = %v", err)
	}
	if _, err := Next(StepConfirmation, a); err == nil {
		t.Error("confirmation must not advance")
	}
}

func TestPrev(t *testing.T) {
	if _, err := Prev(StepWelcome); !errors.Is(err, ErrBackDisabled) {
		t.Errorf("Prev(welcome) err = %v, want ErrBackDisabled", err)
	}
	if _, err := Prev(StepPayment); !errors.Is(err, ErrBackDisabled) {
		t.Errorf("Prev(payment) err = %v, want ErrBackDisabled", err)
	}
	if _, err := Prev(StepConfirmation); !errors.Is(err, ErrBackDisabled) {
		t.Errorf("Prev(confirmation) err = %v, want ErrBackDisabled", err)
	}

	got, err := Prev(StepShipping)
	if err != nil {
		t.Fatalf("Prev(shipping): %v", err)
	}
	if got != StepPlan {
		t.Errorf("Prev(shipping) = %s, want plan", got)
	}
}

func TestResume(t *testing.T) {
	fresh := draftWith(StepWelcome)
	if got := Resume(fresh); got != StepHealthProfile {
		t.Errorf("Resume(fresh) = %s, want health_profile", got)
	}

	profiled := draftWith(StepHealthProfile)
	if got := Resume(profiled); got != StepShipping {
		t.Errorf("Resume(profiled) = %s, want shipping", got)
	}

	ready := draftWith(StepShipping)
	if got := Resume(ready); got != StepPayment {
		t.Errorf("Resume(ready) = %s, want payment", got)
	}

	done := draftWith(StepShipping)
	done.Status = assessment.StatusCompleted
	if got := Resume(done); got != StepConfirmation {
		t.Errorf("Resume(completed) = %s, want confirmation", got)
	}
}
