package jwt

import (
	"testing"
	"time"

	"edvisa-admin/internal/core/domain"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	principal := domain.Principal{
		SubjectID:   "4b1d8f0e-1111-4c3a-9d1e-000000000001",
		Role:        domain.RoleEmployee,
		Permissions: domain.NewPermissionSet(domain.PermStudentsOwnRead, domain.PermDashboardRead),
	}

	token, err := GenerateAccessToken(principal, secret, 15*time.Minute, time.Now())
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, principal.SubjectID, claims.Subject)
	assert.Equal(t, "Employee", claims.Role)
	assert.Equal(t, []string{"Dashboard_Read", "Students_Own_Read"}, claims.Permissions)
	assert.NotEmpty(t, claims.ID)

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, principal, got)
}

func TestValidateAccessTokenFailures(t *testing.T) {
	principal := domain.Principal{SubjectID: "s", Role: domain.RoleStudent, Permissions: domain.NewPermissionSet()}

	expired, err := GenerateAccessToken(principal, secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired, secret)
	assert.ErrorIs(t, err, ErrTokenExpired)

	valid, err := GenerateAccessToken(principal, secret, time.Minute, time.Now())
	require.NoError(t, err)
	_, err = ValidateAccessToken(valid, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateAccessToken("not-a-token", secret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPrincipalDropsUnknownPermissions(t *testing.T) {
	claims := Claims{
		Role:        "Student",
		Permissions: []string{"Students_Own_Read", "Students_Own_Raed"},
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "s",
			Issuer:    issuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	parsed, err := ValidateAccessToken(signed, secret)
	require.NoError(t, err)
	principal, err := parsed.Principal()
	require.NoError(t, err)
	assert.Equal(t, domain.NewPermissionSet(domain.PermStudentsOwnRead), principal.Permissions)

	parsed.Role = "Root"
	_, err = parsed.Principal()
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
