// Package pricing holds the single authoritative medication/plan price table.
// All call sites go through CanonicalPlan so only one plan-key format exists
// in the system.
package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelection is returned for any (medication, plan) pair outside the
// offering table. It is a user-facing validation error, not a fault.
var ErrInvalidSelection = errors.New("invalid medication/plan selection")

// Medications in the offering. Lowercase is canonical.
const (
	MedTirzepatide = "tirzepatide"
	MedSemaglutide = "semaglutide"
)

// Canonical plan keys: lowercase snake_case duration labels.
const (
	PlanOneMonth    = "1_month"
	PlanFourMonths  = "4_months"
	PlanSevenMonths = "7_months"
)

// table maps lowercased medication -> canonical plan key -> whole-unit price.
var table = map[string]map[string]int{
	MedTirzepatide: {
		PlanOneMonth:    499,
		PlanFourMonths:  1799,
		PlanSevenMonths: 2999,
	},
	MedSemaglutide: {
		PlanOneMonth:    249,
		PlanFourMonths:  640,
		PlanSevenMonths: 1050,
	},
}

// CanonicalPlan normalizes a plan label to the canonical snake_case key.
// Both "1 month" and "1_month" are accepted at the boundary; everything past
// the boundary uses the canonical form.
func CanonicalPlan(plan string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(plan))
	key = strings.ReplaceAll(key, " ", "_")
	if key == "" {
		return "", fmt.Errorf("%w: empty plan", ErrInvalidSelection)
	}
	for _, plans := range table {
		if _, ok := plans[key]; ok {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: unknown plan %q", ErrInvalidSelection, plan)
}

// CanonicalMedication normalizes and validates a medication name.
func CanonicalMedication(medication string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(medication))
	if _, ok := table[key]; !ok {
		return "", fmt.Errorf("%w: unknown medication %q", ErrInvalidSelection, medication)
	}
	return key, nil
}

// Price returns the whole-unit price for a medication/plan pair. Inputs are
// normalized first, so "Tirzepatide"/"1 month" and "tirzepatide"/"1_month"
// resolve identically.
func Price(medication, plan string) (int, error) {
	med, err := CanonicalMedication(medication)
	if err != nil {
		return 0, err
	}
	key, err := CanonicalPlan(plan)
	if err != nil {
		return 0, err
	}
	amount, ok := table[med][key]
	if !ok {
		return 0, fmt.Errorf("%w: %s / %s", ErrInvalidSelection, med, key)
	}
	return amount, nil
}

// Offering is one purchasable medication/plan combination.
type Offering struct {
	Medication string `json:"medication"`
	PlanType   string `json:"plan_type"`
	Amount     int    `json:"amount"`
}

// Plans returns the full offering list in a stable order, for the
// plan-selection step.
func Plans() []Offering {
	meds := []string{MedTirzepatide, MedSemaglutide}
	plans := []string{PlanOneMonth, PlanFourMonths, PlanSevenMonths}
	out := make([]Offering, 0, len(meds)*len(plans))
	for _, m := range meds {
		for _, p := range plans {
			out = append(out, Offering{Medication: m, PlanType: p, Amount: table[m][p]})
		}
	}
	return out
}
