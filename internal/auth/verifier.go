// Package auth verifies bearer ID tokens issued by the identity provider.
// Scoring and public listings never depend on identity; only watchlist and
// profile routes require it.
package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Config selects the verification key and expected claims.
type Config struct {
	// Secret is an HMAC-SHA256 shared key.
	Secret string
	// PublicKeyPEM is a PEM-encoded RSA public key for RS256 tokens.
	PublicKeyPEM string

	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Verifier validates ID tokens.
type Verifier struct {
	key    any
	parser *jwt.Parser
}

// NewVerifier creates a Verifier. Exactly one of Secret or PublicKeyPEM must be set.
func NewVerifier(cfg Config) (*Verifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(cfg.Leeway)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	v := &Verifier{}
	switch {
	case cfg.PublicKeyPEM != "" && cfg.Secret != "":
		return nil, errors.New("auth: configure either a public key or a secret, not both")
	case cfg.PublicKeyPEM != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse RSA public key: %w", err)
		}
		v.key = pub
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	case cfg.Secret != "":
		v.key = []byte(cfg.Secret)
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	default:
		return nil, errors.New("auth: configuration requires PublicKeyPEM or Secret")
	}

	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// NewVerifierFromFiles builds a Verifier, reading the RSA key from
// publicKeyFile when it is set.
func NewVerifierFromFiles(secret, publicKeyFile, issuer, audience string) (*Verifier, error) {
	cfg := Config{Secret: secret, Issuer: issuer, Audience: audience, Leeway: 30 * time.Second}
	if publicKeyFile != "" {
		pem, err := os.ReadFile(publicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("auth: read key file %q: %w", publicKeyFile, err)
		}
		cfg.PublicKeyPEM = string(pem)
	}
	return NewVerifier(cfg)
}

// Verify parses and validates a token. Every failure wraps
// domain.ErrUnauthenticated.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return claims, nil
}
