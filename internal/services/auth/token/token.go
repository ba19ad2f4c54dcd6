// Package token mints and verifies the bearer credentials gating table
// operations.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/hanulsoft/jantable/internal/platform/errors"
)

const defaultTTL = time.Hour

// Verified captures the claims of a validated credential.
type Verified struct {
	Subject   string
	ExpiresAt time.Time
}

// Issuer signs and verifies subject tokens with a shared HMAC secret.
type Issuer struct {
	issuer string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates a token issuer. ttl defaults to one hour and now to
// time.Now when zero-valued.
func NewIssuer(issuer string, secret []byte, ttl time.Duration, now func() time.Time) (*Issuer, error) {
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, errors.New("token issuer name is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Issuer{issuer: issuer, secret: secret, ttl: ttl, now: now}, nil
}

// Mint signs a token for subject, valid for the issuer's TTL.
func (i *Issuer) Mint(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := i.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a credential and returns its subject.
//
// A blank credential is Unauthorized; any present-but-failing credential is
// InvalidToken.
func (i *Issuer) Verify(credential string) (Verified, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Verified{}, apperrors.New(apperrors.CodeUnauthorized, "credential is required")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }),
	)
	if err != nil {
		return Verified{}, apperrors.Wrap(apperrors.CodeInvalidToken, "credential failed verification", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Verified{}, apperrors.New(apperrors.CodeInvalidToken, "credential carries no subject")
	}

	verified := Verified{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		verified.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return verified, nil
}
