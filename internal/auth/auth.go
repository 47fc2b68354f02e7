package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// SecretSize is the number of random bytes in a generated secret.
const SecretSize = 64

// ErrUnauthenticated is returned when an address is not the digest of the
// secret presented with it.
var ErrUnauthenticated = errors.New("address does not match secret")

// Account is an address together with the secret it is derived from
type Account struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// NewAccount generates a random secret and its address
func NewAccount() (Account, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return Account{}, fmt.Errorf("failed to generate secret: %w", err)
	}

	privateKey := hex.EncodeToString(secret)
	return Account{
		Address:    Address(privateKey),
		PrivateKey: privateKey,
	}, nil
}

// Address returns the hex SHA-256 digest of a secret
func Address(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// IsAddress reports whether s has the form of an address: a hex encoded
// SHA-256 digest.
func IsAddress(s string) bool {
	if len(s) != 2*sha256.Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Verify checks that address is the digest of secret
func Verify(address, secret string) error {
	if address == "" || secret == "" {
		return fmt.Errorf("missing credentials: %w", ErrUnauthenticated)
	}
	if subtle.ConstantTimeCompare([]byte(address), []byte(Address(secret))) != 1 {
		return ErrUnauthenticated
	}
	return nil
}
