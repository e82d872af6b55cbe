// Package wizard drives the multi-step intake flow over a single draft
// assessment. The step machine is pure; persistence and payment live in the
// surrounding service.
package wizard

import (
	"errors"
	"fmt"

	"github.com/trimrx/trimrx/internal/domain/assessment"
)

// Step identifies a screen of the intake flow.
type Step string

const (
	StepWelcome       Step = "welcome"
	StepHealthProfile Step = "health_profile"
	StepMedication    Step = "medication"
	StepPlan          Step = "plan"
	StepShipping      Step = "shipping"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

// steps in flow order.
var steps = []Step{
	StepWelcome,
	StepHealthProfile,
	StepMedication,
	StepPlan,
	StepShipping,
	StepPayment,
	StepConfirmation,
}

// ErrStepIncomplete is returned when a forward move is blocked by a gate on
// the current step.
var ErrStepIncomplete = errors.New("step incomplete")

// ErrBackDisabled is returned where backward navigation is suppressed:
// at the first step, and once the flow reaches payment.
var ErrBackDisabled = errors.New("cannot go back from this step")

// ParseStep validates a step name.
func ParseStep(s string) (Step, error) {
	for _, step := range steps {
		if Step(s) == step {
			return step, nil
		}
	}
	return "", fmt.Errorf("unknown step %q", s)
}

func index(s Step) int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

// gate reports whether the work of a step is done on the draft, with a
// user-facing reason when it is not.
func gate(s Step, a *assessment.Assessment) error {
	switch s {
	case StepHealthProfile:
		if !a.HasHealthProfile() {
			return fmt.Errorf("%w: health profile requires date of birth, gender, weight and height", ErrStepIncomplete)
		}
	case StepMedication:
		if a.Medication == "" {
			return fmt.Errorf("%w: select a medication", ErrStepIncomplete)
		}
	case StepPlan:
		if a.PlanType == "" || a.Amount <= 0 {
			return fmt.Errorf("%w: select a plan", ErrStepIncomplete)
		}
	case StepShipping:
		if !a.HasShippingAddress() {
			return fmt.Errorf("%w: shipping requires address, city, state and zip", ErrStepIncomplete)
		}
	}
	return nil
}

// Next returns the step after current, enforcing the current step's gate.
// Payment is not advanced past here; only a successful capture moves the flow
// to confirmation.
func Next(current Step, a *assessment.Assessment) (Step, error) {
	i := index(current)
	if i < 0 {
		return "", fmt.Errorf("unknown step %q", current)
	}
	if current == StepPayment || current == StepConfirmation {
		return "", fmt.Errorf("%w: %s advances only on payment", ErrStepIncomplete, current)
	}
	if err := gate(current, a); err != nil {
		return "", err
	}
	return steps[i+1], nil
}

// Prev returns the step before current. Backward navigation is blocked at
// welcome and suppressed at payment and confirmation.
func Prev(current Step) (Step, error) {
	i := index(current)
	if i < 0 {
		return "", fmt.Errorf("unknown step %q", current)
	}
	if current == StepWelcome || current == StepPayment || current == StepConfirmation {
		return "", ErrBackDisabled
	}
	return steps[i-1], nil
}

// Resume computes where a returning user lands: the first step whose gate is
// unsatisfied, or payment when everything before it is done. Completed
// assessments land on confirmation.
func Resume(a *assessment.Assessment) Step {
	if a.Status != assessment.StatusDraft {
		return StepConfirmation
	}
	for _, s := range steps[:index(StepPayment)] {
		if err := gate(s, a); err != nil {
			return s
		}
	}
	return StepPayment
}
