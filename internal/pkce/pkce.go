// Package pkce generates the Proof Key for Code Exchange values used by the OAuth authorization code flow.
//
// Every value is base64url encoded without padding ([base64.RawURLEncoding]).
package pkce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

const (
	verifierBytes = 32 // 43 encoded characters
	stateBytes    = 16 // 22 encoded characters
)

// ChallengeMethod is the only code_challenge_method yotoshare sends.
const ChallengeMethod = "S256"

// Generator draws verifier and state entropy from Rand.
// A nil Rand uses [oauth2.GenerateVerifier] for verifiers and [rand.Reader] for state.
type Generator struct {
	Rand io.Reader
}

var defaultGenerator = &Generator{}

// GenerateCodeVerifier returns 32 random bytes encoded as a 43 character verifier.
func GenerateCodeVerifier() (string, error) {
	return defaultGenerator.CodeVerifier()
}

// GenerateState returns 16 random bytes encoded as a 22 character CSRF state.
func GenerateState() (string, error) {
	return defaultGenerator.State()
}

// GenerateCodeChallenge returns the S256 challenge for verifier.
//
// The result depends only on verifier. ctx is checked before hashing so a cancelled login stops here.
func GenerateCodeChallenge(ctx context.Context, verifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return oauth2.S256ChallengeFromVerifier(verifier), nil
}

func (g *Generator) CodeVerifier() (string, error) {
	if g.Rand == nil {
		return oauth2.GenerateVerifier(), nil
	}
	return g.random(verifierBytes)
}

func (g *Generator) State() (string, error) {
	return g.random(stateBytes)
}

func (g *Generator) random(n int) (string, error) {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
