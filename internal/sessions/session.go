// Package sessions owns the token to principal bindings created after a
// successful login.
package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/campus-records/records/internal/principals"
)

const (
	// TokenBytes is the entropy drawn for each token.
	TokenBytes = 155
	// TokenLength is the encoded token length (unpadded base64url of TokenBytes).
	TokenLength = (TokenBytes*8 + 5) / 6
)

// Session is the immutable binding created by Mint.
type Session struct {
	Token     string
	Username  string
	Role      principals.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func newToken() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("sessions: read token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// wellFormed rejects tokens that could never have been minted before they
// reach a store lookup.
func wellFormed(token string) bool {
	if len(token) != TokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
