package auth

import (
	"errors"
	"fmt"
	"time"

	d "github.com/fjod/storefront/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid session token")
)

const leeway = 30 * time.Second

// Claims carry the signed-in user and the session the cart belongs to.
type Claims struct {
	SessionID string `json:"sid"`
	FirstName string `json:"given_name,omitempty"`
	LastName  string `json:"family_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone_number,omitempty"`
	jwt.RegisteredClaims
}

// Identity is what a valid token proves about the caller. Guests have a
// session but no user id.
type Identity struct {
	SessionID string
	User      d.User
}

func (i Identity) IsGuest() bool {
	return i.User.ID == ""
}

type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for user; a zero user issues a guest token.
// An empty sessionID starts a new session.
func (t *Tokens) Issue(user d.User, sessionID string) (string, Identity, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	now := t.now()
	claims := Claims{
		SessionID: sessionID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims.identity(), nil
}

func (t *Tokens) Parse(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrMissingToken
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	},
		jwt.WithLeeway(leeway), // small clock skew
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.SessionID == "" {
		return Identity{}, fmt.Errorf("%w: missing session", ErrInvalidToken)
	}
	return claims.identity(), nil
}

func (c Claims) identity() Identity {
	return Identity{
		SessionID: c.SessionID,
		User: d.User{
			ID:        c.Subject,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		},
	}
}
