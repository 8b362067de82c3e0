package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patio-backend/internal/config"
	"patio-backend/internal/models"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	cfg.JWT.ExpirationHours = 1
	cfg.JWT.Issuer = "patio-backend"
	return cfg
}

func TestGenerateAndValidateToken(t *testing.T) {
	mgr := NewJWTManager(testConfig("test-secret"))

	user := &models.User{
		ID:        "u1",
		Name:      "Ana",
		Email:     "ana@example.com",
		Role:      "operador",
		CompanyID: "emp-1",
	}

	token, err := mgr.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, "emp-1", claims.CompanyID)
	assert.Equal(t, "operador", claims.Role)
	assert.Equal(t, "patio-backend", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	mgr := NewJWTManager(testConfig("test-secret"))
	other := NewJWTManager(testConfig("another-secret"))

	token, err := mgr.GenerateToken(&models.User{ID: "u1", CompanyID: "emp-1"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	mgr := NewJWTManager(testConfig("test-secret"))
	_, err := mgr.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("segredo123")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "segredo123"))
	assert.False(t, VerifyPassword(hash, "outro"))
}
