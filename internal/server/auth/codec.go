// Package auth signs and verifies the tokens handed out by the server:
// short-lived access tokens, revocable refresh tokens and password-reset
// tokens. All of them are HMAC-signed JWTs sharing one secret.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Codec encodes claim sets into compact JWTs and decodes them back. It holds
// only immutable configuration and is safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

type CodecOption func(*Codec)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec for a symmetric algorithm (HS256, HS384, HS512).
func NewCodec(secret []byte, algorithm string, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}

	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Algorithm reports the configured JWT "alg" value.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Now returns the codec's notion of the current time.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Encode signs claims and returns header.payload.signature.
func (c *Codec) Encode(claims ClaimSet) (string, error) {
	if err := checkShape(claims.Subject, claims.Type, claims.TokenID); err != nil {
		return "", err
	}
	token := jwt.NewWithClaims(c.method, claims.toWire())
	return token.SignedString(c.secret)
}

// Decode verifies the signature and expiry of token and returns its claims.
// Every failure matches common.ErrInvalidToken plus one of
// ErrInvalidSignature, ErrMalformedToken, ErrTokenExpired or ErrAlgorithmMismatch.
func (c *Codec) Decode(token string) (*ClaimSet, error) {
	parser := jwt.NewParser(
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)

	wire := &wireClaims{}
	if _, err := parser.ParseWithClaims(token, wire, c.keyFunc); err != nil {
		return nil, classify(err)
	}

	if err := checkShape(wire.Subject, wire.Type, wire.ID); err != nil {
		return nil, err
	}

	return wire.toClaimSet(), nil
}

// DecodeAs is Decode restricted to one token purpose.
func (c *Codec) DecodeAs(token string, want TokenType) (*ClaimSet, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", common.ErrTokenTypeMismatch, claims.Type, want)
	}
	return claims, nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != c.method.Alg() {
		return nil, common.ErrAlgorithmMismatch
	}
	return c.secret, nil
}

// checkShape enforces required payload fields: sub and a known type, with a
// jti present exactly when the token is a refresh token.
func checkShape(subject string, typ TokenType, tokenID string) error {
	switch {
	case subject == "":
		return invalid(common.ErrMalformedToken, "missing sub")
	case !typ.valid():
		return invalid(common.ErrMalformedToken, fmt.Sprintf("unknown type %q", typ))
	case typ == TokenTypeRefresh && tokenID == "":
		return invalid(common.ErrMalformedToken, "refresh token without jti")
	case typ != TokenTypeRefresh && tokenID != "":
		return invalid(common.ErrMalformedToken, "unexpected jti")
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, common.ErrAlgorithmMismatch), errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid(common.ErrAlgorithmMismatch, err.Error())
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid(common.ErrMalformedToken, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid(common.ErrInvalidSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenExpired):
		return invalid(common.ErrTokenExpired, err.Error())
	default:
		return invalid(common.ErrMalformedToken, err.Error())
	}
}

func invalid(kind error, detail string) error {
	return fmt.Errorf("%w: %w: %s", common.ErrInvalidToken, kind, detail)
}
