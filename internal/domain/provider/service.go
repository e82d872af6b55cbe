// Package provider implements the clinician review surface: listing
// completed assessments with patient details, approving, denying and
// resetting them, and exporting review queues as CSV.
package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/domain/identity"
)

// ProfileDirectory resolves patient profiles for display alongside their
// assessments.
type ProfileDirectory interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*identity.Profile, error)
}

// StatusMailer sends the prescribe/deny notification to the patient.
type StatusMailer interface {
	SendStatusEmail(ctx context.Context, to, status, denialReason, medication string) error
}

// ReviewItem is an assessment joined with its patient's profile fields.
type ReviewItem struct {
	*assessment.Assessment
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
}

// Decision is the outcome of a review action. EmailWarning is set when the
// status write succeeded but the patient notification did not.
type Decision struct {
	Assessment   *assessment.Assessment `json:"assessment"`
	EmailWarning string                 `json:"email_warning,omitempty"`
}

// Service implements the review operations.
type Service struct {
	assessments *assessment.Service
	repo        assessment.Repository
	profiles    ProfileDirectory
	mailer      StatusMailer
	log         zerolog.Logger
}

// NewService creates a provider review service.
func NewService(assessments *assessment.Service, repo assessment.Repository,
	profiles ProfileDirectory, mailer StatusMailer, log zerolog.Logger) *Service {
	return &Service{
		assessments: assessments,
		repo:        repo,
		profiles:    profiles,
		mailer:      mailer,
		log:         log,
	}
}

// List returns assessments in the given status, newest first, joined with
// patient names and emails. Dashboard reads get one automatic retry; a second
// failure is surfaced.
func (s *Service) List(ctx context.Context, status assessment.Status, limit, offset int) ([]ReviewItem, int, error) {
	items, total, err := s.repo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		s.log.Warn().Err(err).Str("status", string(status)).Msg("review list read failed, retrying")
		items, total, err = s.repo.ListByStatus(ctx, status, limit, offset)
		if err != nil {
			return nil, 0, err
		}
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, a := range items {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ReviewItem, 0, len(items))
	for _, a := range items {
		item := ReviewItem{Assessment: a}
		if p, ok := profiles[a.UserID]; ok {
			item.PatientName = p.FullName()
			item.PatientEmail = p.Email
		}
		out = append(out, item)
	}
	return out, total, nil
}

// Approve moves a completed assessment to prescribed and notifies the
// patient. The notification is non-fatal.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Decision, error) {
	return s.decide(ctx, id, assessment.Approve())
}

// Deny moves a completed assessment to denied with the given reason and
// notifies the patient. The notification is non-fatal.
func (s *Service) Deny(ctx context.Context, id uuid.UUID, reason string) (*Decision, error) {
	return s.decide(ctx, id, assessment.Deny(reason))
}

// Reset moves a denied assessment back to completed for re-review. No
// notification is sent.
func (s *Service) Reset(ctx context.Context, id uuid.UUID) (*Decision, error) {
	return s.decide(ctx, id, assessment.Reset())
}

func (s *Service) decide(ctx context.Context, id uuid.UUID, ev assessment.Event) (*Decision, error) {
	a, err := s.assessments.Transition(ctx, id, ev)
	if err != nil {
		return nil, err
	}
	d := &Decision{Assessment: a}
	// Only provider decisions notify; payment capture and reset do not.
	if ev.Kind == assessment.EventApprove || ev.Kind == assessment.EventDeny {
		if warn := s.notify(ctx, a); warn != "" {
			d.EmailWarning = warn
		}
	}
	return d, nil
}

func (s *Service) notify(ctx context.Context, a *assessment.Assessment) string {
	if s.mailer == nil || s.profiles == nil {
		return ""
	}
	profiles, err := s.profiles.GetByIDs(ctx, []uuid.UUID{a.UserID})
	if err != nil || profiles[a.UserID] == nil {
		s.log.Error().Err(err).Str("user_id", a.UserID.String()).Msg("notification recipient lookup failed")
		return "status updated, but the patient could not be notified"
	}
	reason := ""
	if a.DenialReason != nil {
		reason = *a.DenialReason
	}
	if err := s.mailer.SendStatusEmail(ctx, profiles[a.UserID].Email, string(a.Status), reason, a.Medication); err != nil {
		return "status updated, but the patient could not be notified"
	}
	return ""
}
