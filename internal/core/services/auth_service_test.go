package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/adapters/persistence/testdb"
	"edvisa-admin/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_TokenCarriesPermissionSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emp := f.createUser(t, "emp@example.com", domain.RoleEmployee)

	first := f.login(t, "EMP@example.com ")
	p := tokenPrincipal(t, first.AccessToken)
	assert.Equal(t, emp.ID, p.SubjectID)
	assert.Equal(t, domain.RoleEmployee, p.Role)

	defaults, err := f.catalog.DefaultsFor(domain.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, domain.NewPermissionSet(defaults...), p.Permissions)
	assert.False(t, p.Permissions.Has(domain.PermStudentsRead))

	require.NoError(t, f.permissions.Grant(ctx, "actor", emp.ID, string(domain.PermStudentsRead)))

	// The token already handed out keeps its snapshot
	assert.False(t, tokenPrincipal(t, first.AccessToken).Permissions.Has(domain.PermStudentsRead))

	refreshed, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, tokenPrincipal(t, refreshed.AccessToken).Permissions.Has(domain.PermStudentsRead))
	assert.Contains(t, refreshed.User.Permissions, string(domain.PermStudentsRead))
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.createUser(t, "active@example.com", domain.RoleStudent)

	unverified, err := f.users.Create(ctx, &CreateUserInput{
		Email: "new@example.com", Password: "password123", FirstName: "N", LastName: "U", Role: "Student",
	})
	require.NoError(t, err)

	inactive := f.createUser(t, "gone@example.com", domain.RoleStudent)
	require.NoError(t, f.users.SetActive(ctx, inactive.ID, false))

	tests := []struct {
		name     string
		email    string
		password string
		message  string
	}{
		{"unknown email", "nobody@example.com", "password123", MsgInvalidCredentials},
		{"wrong password", "active@example.com", "wrong-password", MsgInvalidCredentials},
		{"inactive", "gone@example.com", "password123", MsgInvalidCredentials},
		{"unverified", "new@example.com", "password123", MsgEmailNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Login(ctx, &LoginInput{Email: tt.email, Password: tt.password})
			assertValidation(t, err, tt.message)
		})
	}

	for _, id := range []string{active.ID, unverified.ID, inactive.ID} {
		_, err := f.store.Repos().RefreshTokens.GetByUserID(ctx, id)
		assert.Error(t, err, "failed logins must not store a refresh token")
	}
}

func TestAdminSync_RestoresDefaultsIdempotently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "admin@example.com", domain.RoleAdmin)

	// Drift the stored set: drop most grants and add nothing new
	repos := f.store.Repos()
	require.NoError(t, repos.Permissions.DeleteAllByUserID(ctx, admin.ID))
	require.NoError(t, repos.Permissions.Grant(ctx, admin.ID, string(domain.PermUsersRead)))

	all := domain.NewPermissionSet(domain.AllPermissions()...)

	first := f.login(t, "admin@example.com")
	assert.Equal(t, all, tokenPrincipal(t, first.AccessToken).Permissions)

	stored, err := f.permissions.List(ctx, admin.ID)
	require.NoError(t, err)

	second := f.login(t, "admin@example.com")
	assert.Equal(t, all, tokenPrincipal(t, second.AccessToken).Permissions)

	again, err := f.permissions.List(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, again)
	assert.Len(t, again, len(domain.AllPermissions()))

	assert.Equal(t, []string{
		events.EventAdminSynced, events.EventSessionIssued,
		events.EventAdminSynced, events.EventSessionIssued,
	}, f.recorder.Types())
}

func TestAdminSync_SkipsNonAdmins(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "partner@example.com", domain.RolePartner)
	f.login(t, "partner@example.com")
	assert.Equal(t, []string{events.EventSessionIssued}, f.recorder.Types())
}

func TestRefresh_SingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "s@example.com", domain.RoleStudent)

	first := f.login(t, "s@example.com")

	second, err := f.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)

	_, err = f.auth.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)

	// A new login invalidates the outstanding refresh token as well
	third := f.login(t, "s@example.com")
	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
	_, err = f.auth.Refresh(ctx, third.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_ConcurrentUseSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "s@example.com", domain.RoleStudent)
	token := f.login(t, "s@example.com").RefreshToken

	const attempts = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.auth.Refresh(context.Background(), token)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrInvalidOrExpiredRefreshToken) {
				failures++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, failures)
}

func TestRefresh_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auth.Refresh(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
	})

	t.Run("expired", func(t *testing.T) {
		f := newFixture(t)
		f.createUser(t, "s@example.com", domain.RoleStudent)
		token := f.login(t, "s@example.com").RefreshToken

		f.auth.now = func() time.Time { return time.Now().UTC().Add(8 * 24 * time.Hour) }
		_, err := f.auth.Refresh(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
	})

	t.Run("inactive", func(t *testing.T) {
		f := newFixture(t)
		u := f.createUser(t, "s@example.com", domain.RoleStudent)
		token := f.login(t, "s@example.com").RefreshToken
		require.NoError(t, f.store.Repos().Users.UpdateFields(ctx, u.ID, map[string]interface{}{"is_active": false}))

		_, err := f.auth.Refresh(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
	})

	t.Run("unverified", func(t *testing.T) {
		f := newFixture(t)
		u := f.createUser(t, "s@example.com", domain.RoleStudent)
		token := f.login(t, "s@example.com").RefreshToken
		require.NoError(t, f.store.Repos().Users.UpdateFields(ctx, u.ID, map[string]interface{}{"email_verified": false}))

		_, err := f.auth.Refresh(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "s@example.com", domain.RoleStudent)
	token := f.login(t, "s@example.com").RefreshToken

	require.NoError(t, f.auth.Logout(ctx, token))
	require.NoError(t, f.auth.Logout(ctx, token))

	_, err := f.auth.Refresh(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredRefreshToken)
}

// failingStore makes permission inserts fail inside transactions
type failingStore struct {
	repositories.Store
}

type failingPermissions struct {
	repositories.PermissionRepository
}

var errInsertFailed = errors.New("insert failed")

func (failingPermissions) CreateBatch(context.Context, string, []string) error {
	return errInsertFailed
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx *repositories.Repositories) error) error {
	return s.Store.WithTx(ctx, func(tx *repositories.Repositories) error {
		wrapped := *tx
		wrapped.Permissions = failingPermissions{tx.Permissions}
		return fn(&wrapped)
	})
}

func TestAdminSync_FailureRollsBackIssuance(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	healthy := newFixtureWithStore(t, repositories.NewStore(db))
	admin := healthy.createUser(t, "admin@example.com", domain.RoleAdmin)
	before, err := healthy.permissions.List(ctx, admin.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	broken := newFixtureWithStore(t, failingStore{repositories.NewStore(db)})
	_, err = broken.auth.Login(ctx, &LoginInput{Email: "admin@example.com", Password: "password123"})
	require.ErrorIs(t, err, errInsertFailed)

	after, err := healthy.permissions.List(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed sync must not leave the admin without permissions")

	var tokens int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Count(&tokens).Error)
	assert.Zero(t, tokens)
	assert.Empty(t, broken.recorder.Types())
}
