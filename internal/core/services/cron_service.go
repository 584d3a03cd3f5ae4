package services

import (
	"context"
	"log"
	"time"

	"edvisa-admin/internal/adapters/persistence/repositories"
	"edvisa-admin/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	cron    *cron.Cron
	tokens  repositories.RefreshTokenRepository
	metrics *metrics.Metrics
	spec    string
}

// NewCronService creates a new cron service. spec is a robfig/cron
// schedule such as "@hourly".
func NewCronService(tokens repositories.RefreshTokenRepository, m *metrics.Metrics, spec string) *CronService {
	return &CronService{
		cron:    cron.New(),
		tokens:  tokens,
		metrics: m,
		spec:    spec,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.PurgeExpiredTokens); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started (token cleanup: %s)", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) PurgeExpiredTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.tokens.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("❌ Expired token cleanup failed: %v", err)
		return
	}
	s.metrics.ObserveTokensPurged(n)
	if n > 0 {
		log.Printf("🧹 Purged %d expired refresh tokens", n)
	}
}
