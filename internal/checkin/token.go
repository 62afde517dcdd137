package checkin

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultValidity bounds how long an issued token can be presented. Short enough
// to limit reuse of a leaked QR code, long enough for classroom display latency.
const DefaultValidity = 15 * time.Minute

// Token is the decoded check-in credential. It binds a session to a validity
// window and nothing else; attendance still requires a live session and an
// enrollment check.
type Token struct {
	SessionID string
	CourseID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	SessionID string `json:"sid"`
	CourseID  string `json:"cid"`
	Nonce     string `json:"nce"`
	jwt.RegisteredClaims
}

// Codec encodes and decodes check-in tokens as HS256-signed compact strings.
// The signature closes the forgery gap a plain structural encoding would have;
// it is verified on decode before any field is trusted. Expiry is deliberately
// NOT checked here — the codec stays a pure transform and the validator owns
// the clock.
type Codec struct {
	key    []byte
	issuer string
	now    func() time.Time
}

// NewCodec creates a codec signing with key.
func NewCodec(key, issuer string) *Codec {
	return &Codec{key: []byte(key), issuer: issuer, now: time.Now}
}

// Issue builds a signed token for a session. A non-positive validity falls back
// to DefaultValidity. The random nonce makes regenerated tokens distinct;
// regeneration does not revoke earlier tokens.
func (c *Codec) Issue(sessionID, courseID string, validity time.Duration) (string, time.Time, error) {
	if sessionID == "" || courseID == "" {
		return "", time.Time{}, errors.New("session and course required")
	}
	if validity <= 0 {
		validity = DefaultValidity
	}
	now := c.now().UTC()
	expiresAt := now.Add(validity)
	claims := tokenClaims{
		SessionID: sessionID,
		CourseID:  courseID,
		Nonce:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode parses and signature-checks a token string. It does not consult the
// clock: an expired but authentic token decodes fine, and the caller decides.
func (c *Codec) Decode(raw string) (Token, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Token{}, ErrInvalidToken
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return Token{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if claims.SessionID == "" || claims.CourseID == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Token{}, fmt.Errorf("%w: missing fields", ErrInvalidToken)
	}
	return Token{
		SessionID: claims.SessionID,
		CourseID:  claims.CourseID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
