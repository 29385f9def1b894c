package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "artpriv/pkg/domain-errors"
)

const signingKey = "test-signing-key"

var jwtService = NewJWTService(signingKey, "test-issuer", "test-audience")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(subject, role string, expiresIn time.Duration) Claims {
	now := time.Now()
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ID:        uuid.NewString(),
		},
	}
}

func Test_ValidateToken_ValidToken(t *testing.T) {
	subject := uuid.NewString()
	token := sign(t, jwt.SigningMethodHS256, []byte(signingKey), claimsFor(subject, "bank", time.Hour))

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, "bank", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "invalid token")
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(signingKey), claimsFor(uuid.NewString(), "donor", -time.Hour))

	_, err := jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "token has expired")
}

func Test_ValidateToken_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"wrong key", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte("other-key"), claimsFor(uuid.NewString(), "donor", time.Hour))
		}},
		{"wrong issuer", func(t *testing.T) string {
			c := claimsFor(uuid.NewString(), "donor", time.Hour)
			c.Issuer = "someone-else"
			return sign(t, jwt.SigningMethodHS256, []byte(signingKey), c)
		}},
		{"wrong audience", func(t *testing.T) string {
			c := claimsFor(uuid.NewString(), "donor", time.Hour)
			c.Audience = []string{"elsewhere"}
			return sign(t, jwt.SigningMethodHS256, []byte(signingKey), c)
		}},
		{"no expiry", func(t *testing.T) string {
			c := claimsFor(uuid.NewString(), "donor", time.Hour)
			c.ExpiresAt = nil
			return sign(t, jwt.SigningMethodHS256, []byte(signingKey), c)
		}},
		{"unsigned", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claimsFor(uuid.NewString(), "donor", time.Hour))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwtService.ValidateToken(tt.token(t))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}

func Test_ValidateToken_MissingRole(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(signingKey), claimsFor(uuid.NewString(), "", time.Hour))

	_, err := jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token claims")
}

func Test_Adapter(t *testing.T) {
	subject := uuid.NewString()
	token := sign(t, jwt.SigningMethodHS256, []byte(signingKey), claimsFor(subject, "super_admin", time.Hour))

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, "super_admin", claims.Role)
}
