package client

import (
	"fmt"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// TokenClaims is the subset of JWT claims the client can read from an
// auth token. Parsing is best-effort and unverified: the token is an
// opaque credential as far as the protocol is concerned, and the server
// remains the sole authority on validity. The claims exist only for
// display (auth status) and for callers that want an expiry hint.
type TokenClaims struct {
	// Subject identifies the authenticated principal, typically the
	// phone number.
	Subject string

	// Expiry is the token expiry, or zero when the claim is absent.
	Expiry time.Time

	// IssuedAt is the issue time, or zero when the claim is absent.
	IssuedAt time.Time
}

// Expired reports whether the expiry claim has passed. Tokens without
// an expiry claim never report expired.
func (tc *TokenClaims) Expired(now time.Time) bool {
	return !tc.Expiry.IsZero() && now.After(tc.Expiry)
}

// tokenSignatureAlgorithms lists the algorithms accepted when parsing a
// token for inspection. The signature is never checked, so the list is
// deliberately broad.
var tokenSignatureAlgorithms = []jose.SignatureAlgorithm{
	jose.HS256, jose.HS384, jose.HS512,
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.EdDSA,
}

// ParseTokenClaims decodes an auth token as a JWT without verifying its
// signature. Opaque (non-JWT) tokens return an error; that is not a
// failure of the protocol, just the absence of readable claims.
func ParseTokenClaims(token string) (*TokenClaims, error) {
	parsed, err := jwt.ParseSigned(token, tokenSignatureAlgorithms)
	if err != nil {
		return nil, fmt.Errorf("token is not a readable JWT: %w", err)
	}

	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return nil, fmt.Errorf("token claims are unreadable: %w", err)
	}

	tc := &TokenClaims{Subject: claims.Subject}
	if claims.Expiry != nil {
		tc.Expiry = claims.Expiry.Time()
	}
	if claims.IssuedAt != nil {
		tc.IssuedAt = claims.IssuedAt.Time()
	}
	return tc, nil
}

// TokenInfo inspects the currently held auth token.
func (c *Client) TokenInfo() (*TokenClaims, error) {
	if c.auth.token == "" {
		return nil, fmt.Errorf("%w: no auth token held", ErrAuthentication)
	}
	return ParseTokenClaims(c.auth.token)
}
