package principals

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// SaltBytes is the amount of randomness in a salt.
	SaltBytes = 32
	// DigestHexLen is the length of a hex encoded HMAC-SHA512 digest.
	DigestHexLen = sha512.Size * 2
)

// NewSalt returns a fresh random salt. Salts are generated once per account.
func NewSalt() (string, error) {
	buf := make([]byte, SaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("principals: read salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Digest computes the hex HMAC-SHA512 of payload keyed with salt. Clients
// compute the same value from the salt they fetched and the password.
func Digest(salt, payload string) string {
	mac := hmac.New(sha512.New, []byte(salt))
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewCredentials derives the salt and stored verifier for a new account.
func NewCredentials(password string) (salt, verifier string, err error) {
	if password == "" {
		return "", "", errors.New("principals: password required")
	}
	salt, err = NewSalt()
	if err != nil {
		return "", "", err
	}
	return salt, Digest(salt, password), nil
}
