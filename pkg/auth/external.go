package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidAssertion is returned when an external identity assertion fails
// parsing or signature verification.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// ExternalIdentity is the verified content of an identity-provider
// assertion: the stable subject plus the profile claims needed for
// first-time account linkage.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// AssertionVerifier validates externally-issued identity assertions.
type AssertionVerifier interface {
	// Verify checks the assertion and returns the identity it attests to.
	Verify(ctx context.Context, assertion string) (*ExternalIdentity, error)
	// Close releases any resources held by the verifier.
	Close()
}

// VerifierConfig contains configuration for the JWKS-backed verifier.
type VerifierConfig struct {
	// EnableVerification controls whether assertion signatures are verified.
	// Set to false for development mode (parses assertions without
	// verification).
	EnableVerification bool
	// Issuer is the expected token issuer. Assertions from any other issuer
	// are rejected when verification is enabled.
	Issuer string
	// JWKSURL is the identity provider's JWKS endpoint.
	JWKSURL string
}

// externalClaims is the claim shape of provider ID tokens.
type externalClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// JWKSVerifier validates identity assertions using the provider's JWKS
// endpoint. Public keys are fetched and cached by keyfunc, which refreshes
// them in the background.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	config *VerifierConfig
}

// NewJWKSVerifier creates a verifier for the configured identity provider.
// If EnableVerification is true, the JWKS is fetched eagerly so startup
// fails fast on a bad endpoint.
func NewJWKSVerifier(config *VerifierConfig) (*JWKSVerifier, error) {
	v := &JWKSVerifier{config: config}

	if !config.EnableVerification {
		return v, nil
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{config.JWKSURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client for %s: %w", config.JWKSURL, err)
	}
	v.jwks = jwks

	return v, nil
}

// Verify checks the assertion and returns the identity it attests to.
// If verification is disabled, the assertion is parsed without signature
// validation (development mode only).
func (v *JWKSVerifier) Verify(ctx context.Context, assertion string) (*ExternalIdentity, error) {
	claims := &externalClaims{}

	if !v.config.EnableVerification {
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		if _, _, err := parser.ParseUnverified(assertion, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
		}
		return v.identityFromClaims(claims)
	}

	token, err := jwt.ParseWithClaims(assertion, claims,
		func(t *jwt.Token) (interface{}, error) {
			// Providers sign ID tokens with RSA or ECDSA; never accept HMAC
			// here, a symmetric alg would let anyone mint assertions.
			switch t.Method.(type) {
			case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			default:
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.jwks.KeyfuncCtx(ctx)(t)
		},
		jwt.WithIssuer(v.config.Issuer),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	return v.identityFromClaims(claims)
}

// identityFromClaims builds an ExternalIdentity, requiring a subject.
func (v *JWKSVerifier) identityFromClaims(claims *externalClaims) (*ExternalIdentity, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidAssertion)
	}
	return &ExternalIdentity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Close releases JWKS resources.
func (v *JWKSVerifier) Close() {
	// keyfunc's default client stops its background refresh when garbage
	// collected; nothing to release explicitly.
}

// Ensure JWKSVerifier implements AssertionVerifier at compile time.
var _ AssertionVerifier = (*JWKSVerifier)(nil)
