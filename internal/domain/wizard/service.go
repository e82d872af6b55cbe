package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/domain/identity"
	"github.com/trimrx/trimrx/internal/platform/payment"
)

// Capturer is the payment operation the checkout step needs.
type Capturer interface {
	Capture(ctx context.Context, req payment.CaptureRequest) error
}

// ProfileSource resolves the caller's profile, used for the confirmation
// email address.
type ProfileSource interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.Profile, error)
}

// ConfirmationMailer sends the post-payment order confirmation.
type ConfirmationMailer interface {
	SendConfirmationEmail(ctx context.Context, to, medication, planType string, amount int) error
}

// Service coordinates the intake flow: step navigation over the caller's
// draft, checkout, and save-and-exit.
type Service struct {
	assessments *assessment.Service
	autosaver   *assessment.Autosaver
	gateway     Capturer
	profiles    ProfileSource
	mailer      ConfirmationMailer
	log         zerolog.Logger
}

// NewService creates a wizard service.
func NewService(assessments *assessment.Service, autosaver *assessment.Autosaver,
	gateway Capturer, profiles ProfileSource, mailer ConfirmationMailer, log zerolog.Logger) *Service {
	return &Service{
		assessments: assessments,
		autosaver:   autosaver,
		gateway:     gateway,
		profiles:    profiles,
		mailer:      mailer,
		log:         log,
	}
}

// State is the wizard position returned to the client.
type State struct {
	Step       Step                   `json:"step"`
	Assessment *assessment.Assessment `json:"assessment"`
	// EmailWarning is set when the order succeeded but the confirmation
	// email did not.
	EmailWarning string `json:"email_warning,omitempty"`
}

// Enter returns the caller's wizard state, creating a draft when none exists.
// Returning users resume at their first incomplete step.
func (s *Service) Enter(ctx context.Context, userID uuid.UUID) (*State, error) {
	draft, err := s.assessments.EnsureDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &State{Step: Resume(draft), Assessment: draft}, nil
}

// Advance moves forward from the given step after flushing any autosave still
// in the debounce window, so gates see the latest form state.
func (s *Service) Advance(ctx context.Context, userID uuid.UUID, current Step) (*State, error) {
	draft, err := s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.autosaver.Flush(ctx, draft.ID); err != nil {
		return nil, err
	}
	// Re-read: the flush may have landed fields the gate checks.
	draft, err = s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	next, err := Next(current, draft)
	if err != nil {
		return nil, err
	}
	return &State{Step: next, Assessment: draft}, nil
}

// Retreat moves backward from the given step.
func (s *Service) Retreat(ctx context.Context, userID uuid.UUID, current Step) (*State, error) {
	draft, err := s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	prev, err := Prev(current)
	if err != nil {
		return nil, err
	}
	return &State{Step: prev, Assessment: draft}, nil
}

// CardInput is the payment form payload.
type CardInput struct {
	CardNumber     string `json:"card_number"`
	ExpirationDate string `json:"expiration_date"`
	CardCode       string `json:"card_code"`
}

// Checkout captures payment for the caller's draft and completes it. The
// amount charged is always the draft's stored (pricing-derived) amount, never
// a client-sent figure. On success the draft becomes completed and the flow
// lands on confirmation; a failed confirmation email does not fail the order.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, card CardInput) (*State, error) {
	draft, err := s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.autosaver.Flush(ctx, draft.ID); err != nil {
		return nil, err
	}
	// Re-read: a shipping patch still in the debounce window is only visible
	// after the flush lands.
	draft, err = s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !draft.HasShippingAddress() {
		return nil, fmt.Errorf("%w: shipping address required before payment", ErrStepIncomplete)
	}

	err = s.gateway.Capture(ctx, payment.CaptureRequest{
		CardNumber:     card.CardNumber,
		ExpirationDate: card.ExpirationDate,
		CardCode:       card.CardCode,
		AssessmentID:   draft.ID,
		Amount:         draft.Amount,
	})
	if err != nil {
		return nil, err
	}

	completed, err := s.assessments.Transition(ctx, draft.ID, assessment.PaymentCaptured())
	if err != nil {
		// Payment went through but the row did not move; this needs an
		// operator, not a silent retry that could double-charge.
		s.log.Error().Err(err).
			Str("assessment_id", draft.ID.String()).
			Msg("payment captured but completion failed")
		return nil, err
	}
	s.autosaver.Forget(draft.ID)

	state := &State{Step: StepConfirmation, Assessment: completed}
	if warn := s.sendConfirmation(ctx, completed); warn != "" {
		state.EmailWarning = warn
	}
	return state, nil
}

func (s *Service) sendConfirmation(ctx context.Context, a *assessment.Assessment) string {
	if s.mailer == nil || s.profiles == nil {
		return ""
	}
	p, err := s.profiles.Get(ctx, a.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", a.UserID.String()).Msg("confirmation recipient lookup failed")
		return "order confirmed, but the confirmation email could not be sent"
	}
	if err := s.mailer.SendConfirmationEmail(ctx, p.Email, a.Medication, a.PlanType, a.Amount); err != nil {
		return "order confirmed, but the confirmation email could not be sent"
	}
	return ""
}

// SaveAndExit flushes any pending autosave and releases the draft's wizard
// resources. The draft itself stays active for the next visit.
func (s *Service) SaveAndExit(ctx context.Context, userID uuid.UUID) error {
	draft, err := s.assessments.LoadDraft(ctx, userID)
	if err != nil {
		if errors.Is(err, assessment.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.autosaver.Flush(ctx, draft.ID); err != nil {
		return err
	}
	s.autosaver.Forget(draft.ID)
	return nil
}
