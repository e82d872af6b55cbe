package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Answer is a tri-state clinical answer. The zero value means "unanswered",
// which is distinct from an explicit "no" and preserved end-to-end for audit
// purposes.
type Answer string

const (
	AnswerUnknown Answer = ""
	AnswerYes     Answer = "yes"
	AnswerNo      Answer = "no"
)

// ParseAnswer maps free-form input onto the tri-state. Only the exact string
// "yes" (case-insensitive after trimming happens at the handler) produces
// AnswerYes; "no" produces AnswerNo; anything else is unanswered.
func ParseAnswer(s string) Answer {
	switch s {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	}
	return AnswerUnknown
}

// Bool collapses the tri-state to a boolean: true only for an explicit "yes".
// This is the single place where "unanswered" is treated as "no"; eligibility
// checks that rely on that collapse go through here.
func (a Answer) Bool() bool { return a == AnswerYes }

// Answered reports whether the question was answered at all.
func (a Answer) Answered() bool { return a == AnswerYes || a == AnswerNo }

// Activity levels accepted on the health profile step.
var ActivityLevels = map[string]bool{
	"sedentary":   true,
	"light":       true,
	"moderate":    true,
	"active":      true,
	"very_active": true,
}

// Assessment is the patient's intake and order record, and the unit of
// provider review.
type Assessment struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Status Status    `db:"status" json:"status"`

	Medication string `db:"medication" json:"medication"`
	PlanType   string `db:"plan_type" json:"plan_type"`
	Amount     int    `db:"amount" json:"amount"`

	DateOfBirth             *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender                  *string    `db:"gender" json:"gender,omitempty"`
	Phone                   *string    `db:"phone" json:"phone,omitempty"`
	Conditions              []string   `db:"conditions" json:"conditions,omitempty"`
	OtherConditions         *string    `db:"other_conditions" json:"other_conditions,omitempty"`
	MTCHistory              Answer     `db:"mtc_history" json:"mtc_history"`
	FamilyMTCHistory        Answer     `db:"family_mtc_history" json:"family_mtc_history"`
	MEN2                    Answer     `db:"men2" json:"men2"`
	PregnantOrBreastfeeding Answer     `db:"pregnant_or_breastfeeding" json:"pregnant_or_breastfeeding"`
	WeightLbs               *int       `db:"weight_lbs" json:"weight_lbs,omitempty"`
	HeightInches            *int       `db:"height_inches" json:"height_inches,omitempty"`
	ActivityLevel           *string    `db:"activity_level" json:"activity_level,omitempty"`
	TakesMedications        Answer     `db:"takes_medications" json:"takes_medications"`
	MedicationsList         *string    `db:"medications_list" json:"medications_list,omitempty"`
	PriorGLP1               Answer     `db:"prior_glp1" json:"prior_glp1"`
	RecentGLP1              Answer     `db:"recent_glp1" json:"recent_glp1"`
	HasAllergies            Answer     `db:"has_allergies" json:"has_allergies"`
	AllergiesList           *string    `db:"allergies_list" json:"allergies_list,omitempty"`
	BloodThinners           Answer     `db:"blood_thinners" json:"blood_thinners"`

	ShippingAddress *string `db:"shipping_address" json:"shipping_address,omitempty"`
	ShippingCity    *string `db:"shipping_city" json:"shipping_city,omitempty"`
	ShippingState   *string `db:"shipping_state" json:"shipping_state,omitempty"`
	ShippingZip     *string `db:"shipping_zip" json:"shipping_zip,omitempty"`

	UTMSource   *string `db:"utm_source" json:"utm_source,omitempty"`
	UTMMedium   *string `db:"utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign *string `db:"utm_campaign" json:"utm_campaign,omitempty"`
	UTMTerm     *string `db:"utm_term" json:"utm_term,omitempty"`
	UTMContent  *string `db:"utm_content" json:"utm_content,omitempty"`

	DenialReason *string   `db:"denial_reason" json:"denial_reason,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasShippingAddress reports whether all four shipping fields are filled.
func (a *Assessment) HasShippingAddress() bool {
	filled := func(s *string) bool { return s != nil && *s != "" }
	return filled(a.ShippingAddress) && filled(a.ShippingCity) &&
		filled(a.ShippingState) && filled(a.ShippingZip)
}

// HasHealthProfile reports whether the basic-info step is complete.
func (a *Assessment) HasHealthProfile() bool {
	return a.DateOfBirth != nil &&
		a.Gender != nil && *a.Gender != "" &&
		a.WeightLbs != nil && *a.WeightLbs > 0 &&
		a.HeightInches != nil && *a.HeightInches > 0
}

// HeightFeetInches holds a height split for display.
type HeightFeetInches struct {
	Feet   int `json:"feet"`
	Inches int `json:"inches"`
}

// FeetInches splits a total-inches height into feet and remaining inches.
// For any non-negative h, Feet*12+Inches == h and 0 <= Inches < 12.
func FeetInches(totalInches int) HeightFeetInches {
	if totalInches < 0 {
		totalInches = 0
	}
	return HeightFeetInches{Feet: totalInches / 12, Inches: totalInches % 12}
}

// TotalInches recombines a feet/inches pair into total inches.
func TotalInches(feet, inches int) int {
	return feet*12 + inches
}

// DraftPatch carries a partial wizard snapshot into SaveDraft. Nil fields are
// left untouched; Answer fields use the tri-state directly.
type DraftPatch struct {
	DateOfBirth             *time.Time `json:"date_of_birth,omitempty"`
	Gender                  *string    `json:"gender,omitempty"`
	Phone                   *string    `json:"phone,omitempty"`
	Conditions              []string   `json:"conditions,omitempty"`
	OtherConditions         *string    `json:"other_conditions,omitempty"`
	MTCHistory              *Answer    `json:"mtc_history,omitempty"`
	FamilyMTCHistory        *Answer    `json:"family_mtc_history,omitempty"`
	MEN2                    *Answer    `json:"men2,omitempty"`
	PregnantOrBreastfeeding *Answer    `json:"pregnant_or_breastfeeding,omitempty"`
	WeightLbs               *int       `json:"weight_lbs,omitempty"`
	HeightFeet              *int       `json:"height_feet,omitempty"`
	HeightInchesPart        *int       `json:"height_inches,omitempty"`
	ActivityLevel           *string    `json:"activity_level,omitempty"`
	TakesMedications        *Answer    `json:"takes_medications,omitempty"`
	MedicationsList         *string    `json:"medications_list,omitempty"`
	PriorGLP1               *Answer    `json:"prior_glp1,omitempty"`
	RecentGLP1              *Answer    `json:"recent_glp1,omitempty"`
	HasAllergies            *Answer    `json:"has_allergies,omitempty"`
	AllergiesList           *string    `json:"allergies_list,omitempty"`
	BloodThinners           *Answer    `json:"blood_thinners,omitempty"`
	ShippingAddress         *string    `json:"shipping_address,omitempty"`
	ShippingCity            *string    `json:"shipping_city,omitempty"`
	ShippingState           *string    `json:"shipping_state,omitempty"`
	ShippingZip             *string    `json:"shipping_zip,omitempty"`
}

// apply merges the patch into an assessment in memory. Height arrives from
// the form as a feet/inches pair and is persisted as total inches.
func (p *DraftPatch) apply(a *Assessment) {
	if p.DateOfBirth != nil {
		a.DateOfBirth = p.DateOfBirth
	}
	if p.Gender != nil {
		a.Gender = p.Gender
	}
	if p.Phone != nil {
		a.Phone = p.Phone
	}
	if p.Conditions != nil {
		a.Conditions = p.Conditions
	}
	if p.OtherConditions != nil {
		a.OtherConditions = p.OtherConditions
	}
	if p.MTCHistory != nil {
		a.MTCHistory = *p.MTCHistory
	}
	if p.FamilyMTCHistory != nil {
		a.FamilyMTCHistory = *p.FamilyMTCHistory
	}
	if p.MEN2 != nil {
		a.MEN2 = *p.MEN2
	}
	if p.PregnantOrBreastfeeding != nil {
		a.PregnantOrBreastfeeding = *p.PregnantOrBreastfeeding
	}
	if p.WeightLbs != nil {
		a.WeightLbs = p.WeightLbs
	}
	if p.HeightFeet != nil || p.HeightInchesPart != nil {
		feet, inches := 0, 0
		if a.HeightInches != nil {
			split := FeetInches(*a.HeightInches)
			feet, inches = split.Feet, split.Inches
		}
		if p.HeightFeet != nil {
			feet = *p.HeightFeet
		}
		if p.HeightInchesPart != nil {
			inches = *p.HeightInchesPart
		}
		total := TotalInches(feet, inches)
		a.HeightInches = &total
	}
	if p.ActivityLevel != nil {
		a.ActivityLevel = p.ActivityLevel
	}
	if p.TakesMedications != nil {
		a.TakesMedications = *p.TakesMedications
	}
	if p.MedicationsList != nil {
		a.MedicationsList = p.MedicationsList
	}
	if p.PriorGLP1 != nil {
		a.PriorGLP1 = *p.PriorGLP1
	}
	if p.RecentGLP1 != nil {
		a.RecentGLP1 = *p.RecentGLP1
	}
	if p.HasAllergies != nil {
		a.HasAllergies = *p.HasAllergies
	}
	if p.AllergiesList != nil {
		a.AllergiesList = p.AllergiesList
	}
	if p.BloodThinners != nil {
		a.BloodThinners = *p.BloodThinners
	}
	if p.ShippingAddress != nil {
		a.ShippingAddress = p.ShippingAddress
	}
	if p.ShippingCity != nil {
		a.ShippingCity = p.ShippingCity
	}
	if p.ShippingState != nil {
		a.ShippingState = p.ShippingState
	}
	if p.ShippingZip != nil {
		a.ShippingZip = p.ShippingZip
	}
}
