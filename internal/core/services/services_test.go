package services

import (
	"context"
	"errors"
	"testing"

	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/adapters/persistence/testdb"
	"edvisa-admin/internal/config"
	"edvisa-admin/internal/core/authz"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/jwt"
	"edvisa-admin/internal/pkg/metrics"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fixture struct {
	store       repositories.Store
	catalog     *authz.Catalog
	recorder    *events.Recorder
	metrics     *metrics.Metrics
	auth        *AuthService
	users       *UserService
	permissions *PermissionService
	students    *ClientService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repositories.NewStore(testdb.Open(t)))
}

func newFixtureWithStore(t *testing.T, store repositories.Store) *fixture {
	t.Helper()

	catalog, err := authz.LoadCatalog("")
	require.NoError(t, err)

	cfg := &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           testSecret,
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}

	rec := &events.Recorder{}
	m := metrics.New()
	return &fixture{
		store:       store,
		catalog:     catalog,
		recorder:    rec,
		metrics:     m,
		auth:        NewAuthService(store, NewPermissionSync(catalog), cfg, rec, m),
		users:       NewUserService(store, catalog),
		permissions: NewPermissionService(store, catalog, rec, m),
		students:    NewStudentService(store),
	}
}

// createUser registers a verified, active user with its role defaults
func (f *fixture) createUser(t *testing.T, email string, role domain.Role) *UserResponse {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.Create(ctx, &CreateUserInput{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  string(role),
		Role:      string(role),
	})
	require.NoError(t, err)
	require.NoError(t, f.users.VerifyEmail(ctx, u.ID))
	return u
}

func (f *fixture) login(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := f.auth.Login(context.Background(), &LoginInput{Email: email, Password: "password123"})
	require.NoError(t, err)
	return resp
}

func tokenPrincipal(t *testing.T, accessToken string) domain.Principal {
	t.Helper()
	claims, err := jwt.ValidateAccessToken(accessToken, testSecret)
	require.NoError(t, err)
	p, err := claims.Principal()
	require.NoError(t, err)
	return p
}

func assertValidation(t *testing.T, err error, message string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	require.Equal(t, message, verr.Message)
}
