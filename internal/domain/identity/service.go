package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/platform/auth"
)

// ErrInvalidCredentials is returned on bad email/password combinations. The
// same error covers unknown emails so responses don't leak registration
// state.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

// SignUpInput carries everything captured on the account-creation form,
// including the marketing tags from the landing URL.
type SignUpInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	UTMSource   *string `json:"utm_source,omitempty"`
	UTMMedium   *string `json:"utm_medium,omitempty"`
	UTMCampaign *string `json:"utm_campaign,omitempty"`
	UTMTerm     *string `json:"utm_term,omitempty"`
	UTMContent  *string `json:"utm_content,omitempty"`
}

// Service implements account management over the profile repository.
type Service struct {
	repo   Repository
	issuer *auth.TokenIssuer
	log    zerolog.Logger
}

// NewService creates an identity service.
func NewService(repo Repository, issuer *auth.TokenIssuer, log zerolog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, log: log}
}

// SignUp registers a new patient account and returns the profile plus a
// session token. Attribution tags are stored on the profile so the draft
// created later can copy them.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Profile, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	p := &Profile{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         auth.RolePatient,
		UTMSource:    in.UTMSource,
		UTMMedium:    in.UTMMedium,
		UTMCampaign:  in.UTMCampaign,
		UTMTerm:      in.UTMTerm,
		UTMContent:   in.UTMContent,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, "", err
	}

	token, err := s.issuer.Issue(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.log.Info().Str("user_id", p.ID.String()).Msg("account created")
	return p, token, nil
}

// SignIn verifies credentials and returns the profile plus a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Profile, string, error) {
	p, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return p, token, nil
}

// Get returns a profile by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIDs returns the profiles for a set of user ids, keyed by id.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Profile, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// UpdatePassword changes the password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

// AttributionForUser implements assessment.AttributionSource by reading the
// tags stored on the profile at sign-up.
func (s *Service) AttributionForUser(ctx context.Context, userID uuid.UUID) (assessment.Attribution, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return assessment.Attribution{}, err
	}
	return assessment.Attribution{
		Source:   p.UTMSource,
		Medium:   p.UTMMedium,
		Campaign: p.UTMCampaign,
		Term:     p.UTMTerm,
		Content:  p.UTMContent,
	}, nil
}

var _ assessment.AttributionSource = (*Service)(nil)
