package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskgate.org/internal/policy"
)

// Account is the credential view of a user.
type Account struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Role           policy.Role `json:"role"`
	OrganizationID string      `json:"organization_id"`
	PasswordHash   string      `json:"-"`
}

// Directory resolves and creates accounts. Implementations return
// ErrAlreadyExists for duplicate emails; any lookup failure is treated as
// bad credentials.
type Directory interface {
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
	CreateAccount(ctx context.Context, acc *Account) error
}

// Session is the result of a successful login or registration.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Account     Account   `json:"user"`
}

// RegisterRequest carries self-registration input.
type RegisterRequest struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	OrganizationID string
}

// Service authenticates credentials and mints access tokens.
type Service struct {
	dir    Directory
	issuer *Issuer
}

// NewService wires a directory and a token issuer.
func NewService(dir Directory, issuer *Issuer) (*Service, error) {
	if dir == nil {
		return nil, errors.New("auth: directory is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: issuer is required")
	}
	return &Service{dir: dir, issuer: issuer}, nil
}

// Issuer exposes the token issuer for request authentication.
func (s *Service) Issuer() *Issuer { return s.issuer }

// Login checks email and password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrUnauthorized
	}
	acc, err := s.dir.FindAccountByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrUnauthorized
	}
	if err := VerifyPassword(acc.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthorized
	}
	return s.session(acc)
}

// Register creates a viewer account in an existing organization and logs it
// in. Higher roles are granted by an owner through the users API.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(req.Password) == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if orgID == "" {
		return Session{}, fmt.Errorf("%w: organization_id is required", ErrInvalidInput)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	acc := Account{
		Email:          email,
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Role:           policy.RoleViewer,
		OrganizationID: orgID,
		PasswordHash:   hash,
	}
	if err := s.dir.CreateAccount(ctx, &acc); err != nil {
		return Session{}, err
	}
	return s.session(acc)
}

func (s *Service) session(acc Account) (Session, error) {
	token, exp, err := s.issuer.Issue(Identity{
		UserID:         acc.ID,
		Email:          acc.Email,
		Role:           acc.Role,
		OrganizationID: acc.OrganizationID,
	})
	if err != nil {
		return Session{}, err
	}
	acc.PasswordHash = ""
	return Session{AccessToken: token, ExpiresAt: exp, Account: acc}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
