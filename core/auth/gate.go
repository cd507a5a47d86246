// Package auth verifies bearer tokens and enforces the role and ownership rules of the API.
package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

// Roles
const (
	RoleAdmin    Role = "admin"
	RoleResident Role = "resident"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
	ErrNotOwner     = errors.Wrap(ErrForbidden, "not the resource owner")

	signingMethod = jwt.SigningMethodHS256
)

type (
	Role string

	// Identity is the caller of one request, as pinned in the token at login.
	Identity struct {
		Username   string `json:"username"`
		Name       string `json:"name"`
		Role       Role   `json:"role"`
		ResidentID string `json:"residentId,omitempty"`
	}

	// Claims represents the authorization claims transmitted via a JWT.
	Claims struct {
		jwt.StandardClaims
		Username   string `json:"username"`
		Name       string `json:"name"`
		Role       Role   `json:"role"`
		ResidentID string `json:"residentId,omitempty"`
	}

	// UserChecker tells whether an account still exists.
	UserChecker interface {
		UsernameExists(ctx context.Context, username string) (bool, error)
	}

	Gate struct {
		issuer string
		secret []byte
		expiry time.Duration
		users  UserChecker
		now    func() time.Time
	}
)

func NewGate(issuer, secret string, expiry time.Duration, users UserChecker) *Gate {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Gate{
		issuer: issuer,
		secret: []byte(secret),
		expiry: expiry,
		users:  users,
		now:    time.Now,
	}
}

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleResident
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

func (c Claims) Identity() Identity {
	return Identity{
		Username:   c.Username,
		Name:       c.Name,
		Role:       c.Role,
		ResidentID: c.ResidentID,
	}
}

// NewClaims returns the claims of a token issued now for id.
func (g *Gate) NewClaims(id Identity) *Claims {
	now := g.now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    g.issuer,
			Subject:   id.Username,
			ExpiresAt: now.Add(g.expiry).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:   id.Username,
		Name:       id.Name,
		Role:       id.Role,
		ResidentID: id.ResidentID,
	}
}

// IssueToken generates a signed JWT token string for id.
func (g *Gate) IssueToken(id Identity) (string, error) {
	return g.SignClaims(g.NewClaims(id))
}

// SignClaims signs arbitrary claims with the gate secret.
func (g *Gate) SignClaims(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(signingMethod, claims)
	ss, err := token.SignedString(g.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Authenticate verifies token and returns the Identity pinned in its claims.
// A structurally valid token is rejected when its user no longer exists.
func (g *Gate) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return g.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Username == "" || !claims.Role.IsValid() {
		return Identity{}, ErrInvalidToken
	}

	exists, err := g.users.UsernameExists(ctx, claims.Username)
	if err != nil {
		return Identity{}, errors.Wrap(err, "checking token user")
	}
	if !exists {
		return Identity{}, ErrInvalidToken
	}
	return claims.Identity(), nil
}

// RequireRole fails unless id has the given role.
func RequireRole(id Identity, role Role) error {
	if id.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireOwnershipOrAdmin lets admins through, and residents only for their own records.
func RequireOwnershipOrAdmin(id Identity, resourceResidentID string) error {
	switch id.Role {
	case RoleAdmin:
		return nil
	case RoleResident:
		if id.ResidentID == resourceResidentID {
			return nil
		}
		return ErrNotOwner
	default:
		return ErrForbidden
	}
}
