package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trimrx/trimrx/internal/platform/auth"
)

type mockRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*Profile
}

func newMockRepo() *mockRepo {
	return &mockRepo{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *mockRepo) Create(_ context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return ErrEmailTaken
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*Profile)
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *mockRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

func newTestService(repo Repository) *Service {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewService(repo, issuer, zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestSignUpCreatesPatientWithAttribution(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p, token, err := svc.SignUp(context.Background(), SignUpInput{
		Email:     "  Pat@Example.COM ",
		Password:  "hunter22!",
		FirstName: "Pat",
		LastName:  "Doe",
		UTMSource: strPtr("instagram"),
		UTMMedium: strPtr("cpc"),
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if p.Email != "pat@example.com" {
		t.Errorf("email = %q, want normalized lowercase", p.Email)
	}
	if p.Role != auth.RolePatient {
		t.Errorf("role = %q, want patient", p.Role)
	}
	if token == "" {
		t.Error("expected a session token")
	}

	attr, err := svc.AttributionForUser(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("AttributionForUser: %v", err)
	}
	if attr.Source == nil || *attr.Source != "instagram" {
		t.Errorf("attribution source = %v, want instagram", attr.Source)
	}
	if attr.Medium == nil || *attr.Medium != "cpc" {
		t.Errorf("attribution medium = %v, want cpc", attr.Medium)
	}
	if attr.Campaign != nil {
		t.Errorf("attribution campaign = %v, want nil", attr.Campaign)
	}
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc := newTestService(newMockRepo())

	if _, _, err := svc.SignUp(context.Background(), SignUpInput{Email: "not-an-email", Password: "longenough"}); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, _, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "short"}); err == nil {
		t.Error("expected error for short password")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := SignUpInput{Email: "pat@example.com", Password: "hunter22!"}
	if _, _, err := svc.SignUp(context.Background(), in); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	_, _, err := svc.SignUp(context.Background(), in)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestSignInRoundTrip(t *testing.T) {
	svc := newTestService(newMockRepo())

	created, _, err := svc.SignUp(context.Background(), SignUpInput{Email: "pat@example.com", Password: "hunter22!"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	p, token, err := svc.SignIn(context.Background(), "pat@example.com", "hunter22!")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if p.ID != created.ID {
		t.Errorf("signed in as %s, want %s", p.ID, created.ID)
	}
	if token == "" {
		t.Error("expected a session token")
	}

	if _, _, err := svc.SignIn(context.Background(), "pat@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.SignIn(context.Background(), "nobody@example.com", "hunter22!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	svc := newTestService(newMockRepo())

	p, _, err := svc.SignUp(context.Background(), SignUpInput{Email: "pat@example.com", Password: "hunter22!"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if err := svc.UpdatePassword(context.Background(), p.ID, "wrong", "another-long-one"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong current password err = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.UpdatePassword(context.Background(), p.ID, "hunter22!", "short"); err == nil {
		t.Error("expected error for short new password")
	}
	if err := svc.UpdatePassword(context.Background(), p.ID, "hunter22!", "another-long-one"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if _, _, err := svc.SignIn(context.Background(), "pat@example.com", "another-long-one"); err != nil {
		t.Errorf("SignIn with new password: %v", err)
	}
	if _, _, err := svc.SignIn(context.Background(), "pat@example.com", "hunter22!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password should no longer work, err = %v", err)
	}
}

func TestFullName(t *testing.T) {
	cases := []struct {
		first, last, want string
	}{
		{"Pat", "Doe", "Pat Doe"},
		{"Pat", "", "Pat"},
		{"", "Doe", "Doe"},
		{"", "", ""},
	}
	for _, tc := range cases {
		p := &Profile{FirstName: tc.first, LastName: tc.last}
		if got := p.FullName(); got != tc.want {
			t.Errorf("FullName(%q, %q) = %q, want %q", tc.first, tc.last, got, tc.want)
		}
	}
}
