package services

import (
	"context"
	"testing"
	"time"

	"edvisa-admin/internal/adapters/persistence/models"
	"edvisa-admin/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronService_PurgeExpiredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.createUser(t, "stale@example.com", domain.RoleStudent)
	fresh := f.createUser(t, "fresh@example.com", domain.RoleStudent)

	tokens := f.store.Repos().RefreshTokens
	require.NoError(t, tokens.Replace(ctx, &models.RefreshToken{
		UserID: stale.ID, TokenHash: "stale", ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}))
	require.NoError(t, tokens.Replace(ctx, &models.RefreshToken{
		UserID: fresh.ID, TokenHash: "fresh", ExpiresAt: time.Now().UTC().Add(time.Hour),
	}))

	svc := NewCronService(tokens, f.metrics, "@hourly")
	svc.PurgeExpiredTokens()

	_, err := tokens.GetByTokenHash(ctx, "stale")
	assert.Error(t, err)
	_, err = tokens.GetByTokenHash(ctx, "fresh")
	assert.NoError(t, err)

	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)
	var purged float64
	for _, mf := range families {
		if mf.GetName() == "edvisa_refresh_tokens_purged_total" {
			purged = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, purged)
}

func TestCronService_RejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	svc := NewCronService(f.store.Repos().RefreshTokens, f.metrics, "not a schedule")
	assert.Error(t, svc.Start())
}
