package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/trimrx/trimrx/internal/domain/pricing"
)

// Attribution carries marketing-channel tags captured at first touch. They
// are copied onto a draft at creation when present.
type Attribution struct {
	Source   *string
	Medium   *string
	Campaign *string
	Term     *string
	Content  *string
}

// AttributionSource resolves the attribution recorded for a user, typically
// from their profile row.
type AttributionSource interface {
	AttributionForUser(ctx context.Context, userID uuid.UUID) (Attribution, error)
}

// ChangePublisher receives a signal whenever an assessment row changes. Used
// as a cache-invalidation hint for provider dashboards; delivery is
// best-effort.
type ChangePublisher interface {
	AssessmentChanged(id uuid.UUID)
}

// Service implements the draft store: one active draft per user, kept in sync
// with wizard form state, with the amount always derived from the pricing
// table.
type Service struct {
	repo        Repository
	attribution AttributionSource
	publisher   ChangePublisher
	log         zerolog.Logger

	createGroup singleflight.Group
}

// NewService creates an assessment service.
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetAttributionSource attaches an optional attribution resolver.
func (s *Service) SetAttributionSource(src AttributionSource) { s.attribution = src }

// SetPublisher attaches an optional change publisher.
func (s *Service) SetPublisher(p ChangePublisher) { s.publisher = p }

func (s *Service) changed(id uuid.UUID) {
	if s.publisher != nil {
		s.publisher.AssessmentChanged(id)
	}
}

// Get returns an assessment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns the user's assessments, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Assessment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// LoadDraft fetches the user's active draft. When the stored amount disagrees
// with the pricing table for the stored medication/plan, exactly one
// corrective write is issued and the healed value is returned. This guards
// against stale rows left behind by earlier pricing bugs.
func (s *Service) LoadDraft(ctx context.Context, userID uuid.UUID) (*Assessment, error) {
	draft, err := s.repo.FindDraftByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	amount, err := pricing.Price(draft.Medication, draft.PlanType)
	if err != nil {
		// The row predates the canonical plan keys or holds an unknown
		// combination. Surface it rather than guessing a price.
		return nil, fmt.Errorf("draft %s has unpriceable selection: %w", draft.ID, err)
	}
	if amount != draft.Amount {
		s.log.Warn().
			Str("assessment_id", draft.ID.String()).
			Int("stored_amount", draft.Amount).
			Int("derived_amount", amount).
			Msg("healing stale draft amount")
		if err := s.repo.UpdateAmount(ctx, draft.ID, amount); err != nil {
			return nil, err
		}
		draft.Amount = amount
		s.changed(draft.ID)
	}
	return draft, nil
}

// EnsureDraft returns the user's active draft, creating one with default
// selections when none exists. Creation is single-flighted per user so two
// near-simultaneous calls cannot insert two drafts; the partial unique index
// on (user_id) WHERE status='draft' backstops anything that slips through.
func (s *Service) EnsureDraft(ctx context.Context, userID uuid.UUID) (*Assessment, error) {
	v, err, _ := s.createGroup.Do(userID.String(), func() (interface{}, error) {
		draft, err := s.LoadDraft(ctx, userID)
		if err == nil {
			return draft, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return s.createDraft(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Assessment), nil
}

func (s *Service) createDraft(ctx context.Context, userID uuid.UUID) (*Assessment, error) {
	amount, err := pricing.Price(pricing.MedTirzepatide, pricing.PlanOneMonth)
	if err != nil {
		return nil, err
	}
	draft := &Assessment{
		UserID:     userID,
		Status:     StatusDraft,
		Medication: pricing.MedTirzepatide,
		PlanType:   pricing.PlanOneMonth,
		Amount:     amount,
	}
	if s.attribution != nil {
		if attr, err := s.attribution.AttributionForUser(ctx, userID); err == nil {
			draft.UTMSource = attr.Source
			draft.UTMMedium = attr.Medium
			draft.UTMCampaign = attr.Campaign
			draft.UTMTerm = attr.Term
			draft.UTMContent = attr.Content
		}
	}
	if err := s.repo.Create(ctx, draft); err != nil {
		// A concurrent request may have won the insert despite the
		// singleflight (e.g. across processes); fall back to the winner.
		if existing, ferr := s.repo.FindDraftByUser(ctx, userID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	s.log.Info().
		Str("assessment_id", draft.ID.String()).
		Str("user_id", userID.String()).
		Msg("draft created")
	s.changed(draft.ID)
	return draft, nil
}

// SaveDraft merges a partial wizard snapshot into the draft. It never creates
// a second draft and rejects saves against non-draft assessments.
func (s *Service) SaveDraft(ctx context.Context, draftID uuid.UUID, patch DraftPatch) (*Assessment, error) {
	draft, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != StatusDraft {
		return nil, fmt.Errorf("%w: assessment %s is %s", ErrInvalidTransition, draftID, draft.Status)
	}
	if patch.ActivityLevel != nil && *patch.ActivityLevel != "" && !ActivityLevels[*patch.ActivityLevel] {
		return nil, fmt.Errorf("invalid activity level %q", *patch.ActivityLevel)
	}
	patch.apply(draft)
	if err := s.repo.Update(ctx, draft); err != nil {
		return nil, err
	}
	s.changed(draft.ID)
	return draft, nil
}

// SelectPlan validates a medication/plan pair against the pricing table and
// writes the selection plus the derived amount atomically.
func (s *Service) SelectPlan(ctx context.Context, draftID uuid.UUID, medication, plan string) (*Assessment, error) {
	med, err := pricing.CanonicalMedication(medication)
	if err != nil {
		return nil, err
	}
	key, err := pricing.CanonicalPlan(plan)
	if err != nil {
		return nil, err
	}
	amount, err := pricing.Price(med, key)
	if err != nil {
		return nil, err
	}

	draft, err := s.repo.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != StatusDraft {
		return nil, fmt.Errorf("%w: assessment %s is %s", ErrInvalidTransition, draftID, draft.Status)
	}
	if err := s.repo.UpdatePlan(ctx, draftID, med, key, amount); err != nil {
		return nil, err
	}
	draft.Medication = med
	draft.PlanType = key
	draft.Amount = amount
	s.changed(draft.ID)
	return draft, nil
}

// Transition applies a lifecycle event to an assessment. The event is
// validated against the status table before any write; invalid transitions
// leave the stored row untouched. The caller is responsible for any
// follow-up notification (which is non-fatal by contract).
func (s *Service) Transition(ctx context.Context, id uuid.UUID, ev Event) (*Assessment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := Apply(a.Status, ev)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, tr.To, tr.DenialReason); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("assessment_id", id.String()).
		Str("from", string(tr.From)).
		Str("to", string(tr.To)).
		Msg("assessment status changed")
	a.Status = tr.To
	a.DenialReason = tr.DenialReason
	s.changed(id)
	return a, nil
}
