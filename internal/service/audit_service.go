package service

import (
	"context"
	"sync"
	"time"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"

	"github.com/rs/zerolog"
)

// AuditService persists audit entries asynchronously. Audit writes must not
// add latency to the request path, and a failed write is logged, not
// surfaced.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
	wg   sync.WaitGroup
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Log records an audit entry in the background. The request context is
// deliberately not propagated so an aborted request still gets audited.
func (s *AuditService) Log(_ context.Context, entry *domain.AuditLog) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Error().
				Err(err).
				Str("action", string(entry.Action)).
				Str("resource_id", entry.ResourceID).
				Msg("audit write failed")
		}
	}()
}

// Wait blocks until all in-flight audit writes have finished.
func (s *AuditService) Wait() {
	s.wg.Wait()
}
