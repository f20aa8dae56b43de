package service

import (
	"context"
	"fmt"
	"time"

	domain "event-registration/internal/domain/registration"
	"event-registration/internal/infrastructure/cache"
	"event-registration/pkg/logger"

	"github.com/google/uuid"
)

const (
	eventStatsTTL = 2 * time.Minute
	overviewTTL   = 2 * time.Minute
)

// AnalyticsService computes read-only statistics from the ledger. Results
// are point-in-time snapshots with no consistency guarantee relative to
// concurrent writes, so a short-TTL cache in front of them is acceptable.
type AnalyticsService struct {
	ledger domain.Ledger
	cache  *cache.RedisCache
}

// NewAnalyticsService creates the reporter. cache may be nil, in which case
// every call hits the ledger.
func NewAnalyticsService(ledger domain.Ledger, cache *cache.RedisCache) *AnalyticsService {
	return &AnalyticsService{
		ledger: ledger,
		cache:  cache,
	}
}

// EventStats returns per-event counts for organizers and admins. An event
// with no registrations yields zero counts, never a not-found error.
func (s *AnalyticsService) EventStats(ctx context.Context, principal *domain.Principal, eventID uuid.UUID) (*domain.EventStats, error) {
	if !principal.HasRole(domain.RoleOrganizer) {
		return nil, domain.ErrForbidden
	}

	cacheKey := fmt.Sprintf("analytics:event:%s", eventID)
	if s.cache != nil {
		var cached domain.EventStats
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.ledger.EventStats(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, stats, eventStatsTTL); err != nil {
			logger.Warn("Failed to cache event stats for %s: %v", eventID, err)
		}
	}

	return stats, nil
}

// Overview returns system-wide counts. Admin only.
func (s *AnalyticsService) Overview(ctx context.Context, principal *domain.Principal) (*domain.OverviewStats, error) {
	if !principal.HasRole(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}

	const cacheKey = "analytics:overview"
	if s.cache != nil {
		var cached domain.OverviewStats
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, err := s.ledger.Overview(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, stats, overviewTTL); err != nil {
			logger.Warn("Failed to cache overview stats: %v", err)
		}
	}

	return stats, nil
}
