package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// Entropy sizes follow RFC 7636: the verifier carries 32 bytes, the state
// correlation token 16 bytes, both base64url without padding.
const (
	stateLength        = 16
	codeVerifierLength = 32
)

// PkceChallenge is a state/verifier/challenge triple for one login attempt.
// State is the external correlation key; CodeVerifier must never leave the
// server; CodeChallenge is what the provider sees.
type PkceChallenge struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// GeneratePkceChallenge produces a fresh challenge using the S256 method.
func GeneratePkceChallenge() PkceChallenge {
	verifier := generateRandomString(codeVerifierLength)
	return PkceChallenge{
		State:         generateRandomString(stateLength),
		CodeVerifier:  verifier,
		CodeChallenge: generateCodeChallenge(verifier),
	}
}

// generateRandomString creates a random base64url string. crypto/rand.Read
// cannot fail on supported platforms; without a CSPRNG the process cannot
// safely issue logins at all.
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// generateCodeChallenge creates a PKCE code challenge from a verifier
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
