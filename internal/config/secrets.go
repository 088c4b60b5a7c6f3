package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretConfig hashes and verifies API client secrets.
type SecretConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewSecretConfig validates and returns a secret configuration.
func NewSecretConfig(cost int, pepper string) (*SecretConfig, error) {
	config := &SecretConfig{BcryptCost: cost, Pepper: pepper}
	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *SecretConfig) normalize() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be %d-14)", c.BcryptCost, bcrypt.MinCost)
	}
	return nil
}

// HashSecret hashes a client secret using bcrypt (with optional pepper).
func (c *SecretConfig) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret+c.Pepper), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether secret matches storedHash.
func (c *SecretConfig) VerifySecret(secret, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(secret+c.Pepper)) == nil
}
