package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		expiration int
		wantErr    string
	}{
		{name: "valid", secret: "test-secret-key", expiration: 24},
		{name: "minimum expiration 1 hour", secret: "k", expiration: 1},
		{name: "empty secret", secret: "", expiration: 24, wantErr: "JWT_SECRET cannot be empty"},
		{name: "zero expiration", secret: "k", expiration: 0, wantErr: "must be at least 1 hour"},
		{name: "negative expiration", secret: "k", expiration: -5, wantErr: "got: -5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewJWTConfig(tt.secret, tt.expiration)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.secret, cfg.Secret)
			assert.Equal(t, tt.expiration, cfg.ExpirationHours)
		})
	}
}
