// Package auth issues and parses the signed access tokens used by
// gatekeeper. Tokens are compact JWTs signed with HMAC-SHA512; the codec holds
// no mutable state and is safe for concurrent use.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the fields carried inside a token.
type Claims struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies tokens with a single server secret.
type Codec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
	newID    func() string
	parser   *jwt.Parser
}

// Option customizes a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a codec issuing tokens valid for validity.
func NewCodec(secret []byte, validity time.Duration, opts ...Option) *Codec {
	c := &Codec{
		secret:   secret,
		validity: validity,
		now:      time.Now,
		newID:    uuid.NewString,
		// Expiry is checked by the codec itself so that an expired token can
		// still be parsed for its subject and id.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validity is the lifetime given to every issued token.
func (c *Codec) Validity() time.Duration {
	return c.validity
}

// Issue signs a new token for subject with a fresh token id.
func (c *Codec) Issue(subject string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        c.newID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ResolveHeader strips a leading "Bearer " from an Authorization value.
// Values without the prefix are returned unchanged.
func ResolveHeader(raw string) string {
	return strings.TrimPrefix(raw, common.BearerPrefix)
}

// Parse verifies the signature and structure of tokenString. It does not
// check expiry. Errors match common.ErrTokenMalformed or
// common.ErrTokenInvalidSignature.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	rc := &jwt.RegisteredClaims{}
	_, err := c.parser.ParseWithClaims(tokenString, rc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	if rc.Subject == "" || rc.ID == "" || rc.IssuedAt == nil || rc.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", common.ErrTokenMalformed)
	}

	return &Claims{
		Subject:   rc.Subject,
		TokenID:   rc.ID,
		IssuedAt:  rc.IssuedAt.Time,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// IsExpired reports whether the token's expiry has been reached.
func (c *Codec) IsExpired(tokenString string) (bool, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return false, err
	}
	return c.Expired(claims), nil
}

// Check parses the token and verifies it belongs to subject and has not
// expired. Revocation is not consulted.
func (c *Codec) Check(tokenString, subject string) error {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return err
	}
	if claims.Subject != subject {
		return common.ErrSubjectMismatch
	}
	if c.Expired(claims) {
		return common.ErrTokenExpired
	}
	return nil
}

// Validate is Check reduced to a boolean.
func (c *Codec) Validate(tokenString, subject string) bool {
	return c.Check(tokenString, subject) == nil
}

// SubjectOf returns the subject claim.
func (c *Codec) SubjectOf(tokenString string) (string, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// TokenIDOf returns the unique id assigned at issuance.
func (c *Codec) TokenIDOf(tokenString string) (string, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.TokenID, nil
}

// ExpiryOf returns the expiry of a verified token, expired or not.
func (c *Codec) ExpiryOf(tokenString string) (time.Time, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt, nil
}

// IssuedAtOf returns the issue time of a verified token.
func (c *Codec) IssuedAtOf(tokenString string) (time.Time, error) {
	claims, err := c.Parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	return claims.IssuedAt, nil
}

// Expired reports whether claims are past expiry. A token is valid on
// [IssuedAt, ExpiresAt).
func (c *Codec) Expired(claims *Claims) bool {
	return !c.now().Before(claims.ExpiresAt)
}
