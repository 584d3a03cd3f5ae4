package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories bound to one connection or transaction
type Repositories struct {
	Users         UserRepository
	Permissions   PermissionRepository
	RefreshTokens RefreshTokenRepository
	Documents     DocumentRepository
}

func newRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Permissions:   NewPermissionRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Documents:     NewDocumentRepository(db),
	}
}

// Store hands out repositories and runs units of work atomically
type Store interface {
	Repos() *Repositories
	// WithTx runs fn inside one transaction. A returned error, a panic or
	// a cancelled ctx rolls back everything fn wrote.
	WithTx(ctx context.Context, fn func(tx *Repositories) error) error
}

type gormStore struct {
	db    *gorm.DB
	repos *Repositories
}

// NewStore creates a GORM backed store
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, repos: newRepositories(db)}
}

func (s *gormStore) Repos() *Repositories {
	return s.repos
}

func (s *gormStore) WithTx(ctx context.Context, fn func(tx *Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}
