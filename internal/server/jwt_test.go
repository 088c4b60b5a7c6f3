package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sop-question-agent/internal/config"
)

func newTestJWTService(t *testing.T, secret string) *JWTService {
	t.Helper()
	cfg, err := config.NewJWTConfig(secret, 24)
	require.NoError(t, err)
	return NewJWTService(cfg)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService(t, "test-secret")

	token, expiresAt, err := svc.GenerateToken("frontend")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "frontend", claims.GetClientID())
	assert.Equal(t, "frontend", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
}

func TestJWTService_EmptyClient(t *testing.T) {
	svc := newTestJWTService(t, "test-secret")
	_, _, err := svc.GenerateToken("")
	assert.Error(t, err)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWTService(t, "test-secret")
	other := newTestJWTService(t, "other-secret")

	foreign, _, err := other.GenerateToken("frontend")
	require.NoError(t, err)

	expiredSvc := newTestJWTService(t, "test-secret")
	expiredSvc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, err := expiredSvc.GenerateToken("frontend")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ClientID: "frontend"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noClient, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{"empty", "", "token string is empty"},
		{"malformed", "not.a.jwt", "malformed token"},
		{"wrong secret", foreign, "invalid token signature"},
		{"expired", expired, "token expired"},
		{"none algorithm", unsigned, "failed to parse token"},
		{"missing client", noClient, "token is not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
