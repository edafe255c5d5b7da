package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	"github.com/noah-isme/hostel-adp-api/internal/dto"
)

type duesProvider interface {
	PortfolioRosters(ctx context.Context, asOf time.Time) ([]academic.HostelRoster, error)
	HostelRoster(ctx context.Context, hostelID string, asOf time.Time) (*HostelDueReport, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes due-state dashboards and caches the payloads.
// Dashboards are always derived from current invoice history; the cache TTL
// bounds staleness, and invoice writes invalidate eagerly.
type DashboardService struct {
	dues   duesProvider
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(dues duesProvider, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{dues: dues, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Portfolio returns the master-admin view across every active hostel and
// indicates cache utilisation. The first row is always the "Overall"
// aggregate.
func (s *DashboardService) Portfolio(ctx context.Context) (*dto.PortfolioDashboardResponse, bool, error) {
	asOf := s.now().UTC()
	cacheKey := fmt.Sprintf("dashboard:portfolio:%s", asOf.Format("2006-01-02"))

	if s.cache != nil {
		var cached dto.PortfolioDashboardResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	rosters, err := s.dues.PortfolioRosters(ctx, asOf)
	if err != nil {
		return nil, false, err
	}

	response := &dto.PortfolioDashboardResponse{
		AsOf:    asOf.Format("2006-01-02"),
		Periods: periodContext(asOf),
		Rows:    academic.Summarize(rosters),
	}
	s.persistCache(ctx, cacheKey, response)
	return response, false, nil
}

// Hostel returns the reception view for one hostel: the aggregate row plus
// every active student's due state.
func (s *DashboardService) Hostel(ctx context.Context, hostelID string) (*dto.HostelDashboardResponse, bool, error) {
	asOf := s.now().UTC()
	cacheKey := fmt.Sprintf("dashboard:hostel:%s:%s", hostelID, asOf.Format("2006-01-02"))

	if s.cache != nil {
		var cached dto.HostelDashboardResponse
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return &cached, true, nil
		}
	}

	report, err := s.dues.HostelRoster(ctx, hostelID, asOf)
	if err != nil {
		return nil, false, err
	}

	response := &dto.HostelDashboardResponse{
		HostelID: hostelID,
		AsOf:     asOf.Format("2006-01-02"),
		Periods:  periodContext(asOf),
		Summary:  report.Summary,
		Students: report.Rows,
	}
	s.persistCache(ctx, cacheKey, response)
	return response, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func periodContext(asOf time.Time) dto.PeriodContext {
	period := academic.PeriodOf(asOf)
	return dto.PeriodContext{Code: period.Code(), Label: period.Label()}
}
