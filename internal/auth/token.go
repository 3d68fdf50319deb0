package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskgate.org/internal/ids"
	"taskgate.org/internal/policy"
)

const (
	defaultIssuer   = "taskgate"
	defaultTokenTTL = time.Hour
	minSecretLength = 16
)

var errMissingSecret = errors.New("auth: token secret is not configured")

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"org"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the policy principal.
func (c *Claims) Principal() (policy.Principal, error) {
	role, err := policy.ParseRole(c.Role)
	if err != nil {
		return policy.Principal{}, err
	}
	return policy.Principal{
		ID:             c.Subject,
		Role:           role,
		OrganizationID: c.OrganizationID,
	}, nil
}

// Identity is what an access token is minted for.
type Identity struct {
	UserID         string
	Email          string
	Role           policy.Role
	OrganizationID string
}

// Issuer signs and verifies HS256 access tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer) error

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) error {
		if v := strings.TrimSpace(issuer); v != "" {
			i.issuer = v
		}
		return nil
	}
}

// WithTokenTTL configures access token lifetime.
func WithTokenTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) error {
		if ttl < 0 {
			return errors.New("auth: ttl must not be negative")
		}
		if ttl > 0 {
			i.ttl = ttl
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) IssuerOption {
	return func(i *Issuer) error {
		if fn != nil {
			i.now = fn
		}
		return nil
	}
}

// NewIssuer constructs an Issuer signing with secret.
func NewIssuer(secret string, opts ...IssuerOption) (*Issuer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errMissingSecret
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: token secret must be at least %d bytes", minSecretLength)
	}
	iss := &Issuer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(iss); err != nil {
			return nil, err
		}
	}
	return iss, nil
}

// Issue signs an access token for id and returns it with its expiry.
func (i *Issuer) Issue(id Identity) (string, time.Time, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !id.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("%w: role %q", ErrInvalidInput, id.Role)
	}
	if strings.TrimSpace(id.OrganizationID) == "" {
		return "", time.Time{}, fmt.Errorf("%w: organization id is required", ErrInvalidInput)
	}

	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		Email:          id.Email,
		Role:           string(id.Role),
		OrganizationID: id.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        ids.Token(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the signature and the registered claims and returns the
// claims of a valid token. Every failure is reported as ErrInvalidToken.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
		jwt.WithTimeFunc(i.now),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.OrganizationID) == "" {
		return nil, ErrInvalidToken
	}
	if _, err := policy.ParseRole(claims.Role); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate verifies token and returns the principal it carries.
func (i *Issuer) Authenticate(token string) (policy.Principal, error) {
	claims, err := i.Verify(token)
	if err != nil {
		return policy.Principal{}, err
	}
	principal, err := claims.Principal()
	if err != nil {
		return policy.Principal{}, ErrInvalidToken
	}
	return principal, nil
}
