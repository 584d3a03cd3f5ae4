package services

import (
	"context"
	"errors"
	"log"
	"time"

	"edvisa-admin/internal/adapters/events"
	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/config"
	"edvisa-admin/internal/core/domain"
	"edvisa-admin/internal/pkg/jwt"
	"edvisa-admin/internal/pkg/metrics"
	"edvisa-admin/internal/pkg/password"

	"gorm.io/gorm"
)

// AuthService issues and revokes sessions
type AuthService struct {
	store     repositories.Store
	sync      *PermissionSync
	cfg       *config.Config
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	store repositories.Store,
	sync *PermissionSync,
	cfg *config.Config,
	publisher events.Publisher,
	m *metrics.Metrics,
) *AuthService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &AuthService{
		store:     store,
		sync:      sync,
		cfg:       cfg,
		publisher: publisher,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
}

// sessionCheck runs against the locked user row before anything is written
type sessionCheck func(ctx context.Context, tx *repositories.Repositories, user *models.User) error

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.store.Repos().Users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveSession("login", "rejected")
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if !password.Verify(input.Password, user.PasswordHash) {
		s.metrics.ObserveSession("login", "rejected")
		return nil, invalidCredentials()
	}
	if err := checkAccount(user); err != nil {
		s.metrics.ObserveSession("login", "rejected")
		return nil, err
	}

	resp, synced, err := s.issueSession(ctx, user.ID, func(_ context.Context, _ *repositories.Repositories, locked *models.User) error {
		return checkAccount(locked)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = invalidCredentials()
		}
		s.observeFailure("login", err)
		return nil, err
	}

	s.metrics.ObserveSession("login", "success")
	s.publish(ctx, events.EventSessionIssued, resp.User.ID, synced)
	log.Printf("✅ User logged in: %s (%s)", resp.User.Email, resp.User.Role)
	return resp, nil
}

// checkAccount rejects accounts that may not sign in. An inactive account
// reports the same message as a wrong password.
func checkAccount(user *models.User) error {
	if !user.IsActive {
		return invalidCredentials()
	}
	if !user.EmailVerified {
		return emailNotVerified()
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair. The presented token
// is consumed: a second use fails even if the first is still in flight.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	tokenHash := password.HashToken(refreshToken)

	stored, err := s.store.Repos().RefreshTokens.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.ObserveSession("refresh", "rejected")
			return nil, ErrInvalidOrExpiredRefreshToken
		}
		return nil, err
	}
	if stored.IsExpired(s.now()) {
		s.metrics.ObserveSession("refresh", "rejected")
		return nil, ErrInvalidOrExpiredRefreshToken
	}

	resp, synced, err := s.issueSession(ctx, stored.UserID, func(ctx context.Context, tx *repositories.Repositories, user *models.User) error {
		// Re-read under the user lock; a concurrent refresh may have
		// rotated the token since the lookup above.
		current, err := tx.RefreshTokens.GetByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOrExpiredRefreshToken
			}
			return err
		}
		if current.TokenHash != tokenHash || current.IsExpired(s.now()) {
			return ErrInvalidOrExpiredRefreshToken
		}
		if !user.IsActive || !user.EmailVerified {
			return ErrInvalidOrExpiredRefreshToken
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = ErrInvalidOrExpiredRefreshToken
		}
		s.observeFailure("refresh", err)
		return nil, err
	}

	s.metrics.ObserveSession("refresh", "success")
	s.publish(ctx, events.EventSessionRefreshed, resp.User.ID, synced)
	log.Printf("✅ Token refreshed for user: %s", resp.User.Email)
	return resp, nil
}

// Logout deletes the stored refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	deleted, err := s.store.Repos().RefreshTokens.DeleteByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		return err
	}
	if deleted {
		s.metrics.ObserveSession("logout", "success")
		log.Printf("✅ User logged out")
	}
	return nil
}

// issueSession locks the user row, runs check, syncs Admin permissions,
// reads the permission snapshot, mints the pair and rotates the stored
// refresh token, all in one transaction.
func (s *AuthService) issueSession(ctx context.Context, userID string, check sessionCheck) (*AuthResponse, bool, error) {
	var (
		resp   *AuthResponse
		synced bool
	)

	err := s.store.WithTx(ctx, func(tx *repositories.Repositories) error {
		row, err := tx.Users.GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := check(ctx, tx, row); err != nil {
			return err
		}

		user := row.ToDomain()
		if synced, err = s.sync.Sync(ctx, tx, user); err != nil {
			return err
		}

		perms, err := loadPermissions(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		now := s.now()
		principal := domain.Principal{SubjectID: user.ID, Role: user.Role, Permissions: perms}
		accessToken, err := jwt.GenerateAccessToken(principal, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenTTL(), now)
		if err != nil {
			return err
		}

		refreshToken, err := password.GenerateRefreshToken()
		if err != nil {
			return err
		}
		if err := tx.RefreshTokens.Replace(ctx, &models.RefreshToken{
			UserID:    user.ID,
			TokenHash: password.HashToken(refreshToken),
			ExpiresAt: now.Add(s.cfg.JWT.RefreshTokenTTL()),
			CreatedAt: now,
		}); err != nil {
			return err
		}

		resp = &AuthResponse{
			User:         NewUserResponse(user, perms),
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int64(s.cfg.JWT.AccessTokenTTL().Seconds()),
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return resp, synced, nil
}

func (s *AuthService) observeFailure(operation string, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrInvalidOrExpiredRefreshToken) {
		s.metrics.ObserveSession(operation, "rejected")
		return
	}
	s.metrics.ObserveSession(operation, "error")
	log.Printf("❌ Session %s failed: %v", operation, err)
}

func (s *AuthService) publish(ctx context.Context, eventType, userID string, synced bool) {
	if synced {
		s.metrics.ObserveAdminSync()
		s.emit(ctx, &events.Event{Type: events.EventAdminSynced, UserID: userID, ActorID: userID})
	}
	s.emit(ctx, &events.Event{Type: eventType, UserID: userID, ActorID: userID})
}

func (s *AuthService) emit(ctx context.Context, event *events.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("⚠️ Failed to publish %s: %v", event.Type, err)
	}
}
