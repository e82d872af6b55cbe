package pricing

import (
	"errors"
	"testing"
)

func TestPriceValidPairs(t *testing.T) {
	tests := []struct {
		medication string
		plan       string
		want       int
	}{
		{"tirzepatide", "1_month", 499},
		{"tirzepatide", "4_months", 1799},
		{"tirzepatide", "7_months", 2999},
		{"semaglutide", "1_month", 249},
		{"semaglutide", "4_months", 640},
		{"semaglutide", "7_months", 1050},
	}
	for _, tt := range tests {
		got, err := Price(tt.medication, tt.plan)
		if err != nil {
			t.Errorf("Price(%s, %s): %v", tt.medication, tt.plan, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Price(%s, %s) = %d, want %d", tt.medication, tt.plan, got, tt.want)
		}
	}
}

func TestPriceNormalizesInputs(t *testing.T) {
	got, err := Price("Tirzepatide", "1 month")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 499 {
		t.Errorf("Price = %d, want 499", got)
	}
	got, err = Price("SEMAGLUTIDE", "7 months")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got != 1050 {
		t.Errorf("Price = %d, want 1050", got)
	}
}

func TestPriceInvalidSelections(t *testing.T) {
	tests := []struct{ medication, plan string }{
		{"", "1_month"},
		{"tirzepatide", ""},
		{"ozempic", "1_month"},
		{"tirzepatide", "2_months"},
		{"tirzepatide", "1month"},
	}
	for _, tt := range tests {
		if _, err := Price(tt.medication, tt.plan); !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("Price(%q, %q) err = %v, want ErrInvalidSelection", tt.medication, tt.plan, err)
		}
	}
}

func TestCanonicalPlan(t *testing.T) {
	for _, in := range []string{"1 month", "1_month", " 1 Month "} {
		got, err := CanonicalPlan(in)
		if err != nil {
			t.Errorf("CanonicalPlan(%q): %v", in, err)
			continue
		}
		if got != PlanOneMonth {
			t.Errorf("CanonicalPlan(%q) = %q, want %q", in, got, PlanOneMonth)
		}
	}
	if _, err := CanonicalPlan("forever"); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("expected ErrInvalidSelection for unknown plan")
	}
}

func TestPlansCoversAllPairs(t *testing.T) {
	offerings := Plans()
	if len(offerings) != 6 {
		t.Fatalf("len(Plans()) = %d, want 6", len(offerings))
	}
	for _, o := range offerings {
		want, err := Price(o.Medication, o.PlanType)
		if err != nil {
			t.Errorf("offering %+v not priceable: %v", o, err)
			continue
		}
		if o.Amount != want {
			t.Errorf("offering %s/%s amount = %d, want %d", o.Medication, o.PlanType, o.Amount, want)
		}
	}
}
