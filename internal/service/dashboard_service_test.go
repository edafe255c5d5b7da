package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/hostel-adp-api/internal/academic"
	appErrors "github.com/noah-isme/hostel-adp-api/pkg/errors"
)

type fakeDuesProvider struct {
	rosters     []academic.HostelRoster
	report      *HostelDueReport
	portfolioN  int
	hostelCalls int
}

func (f *fakeDuesProvider) PortfolioRosters(ctx context.Context, asOf time.Time) ([]academic.HostelRoster, error) {
	f.portfolioN++
	return f.rosters, nil
}

func (f *fakeDuesProvider) HostelRoster(ctx context.Context, hostelID string, asOf time.Time) (*HostelDueReport, error) {
	f.hostelCalls++
	return f.report, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = make(map[string][]byte)
	return nil
}

func overdueState(days int) academic.DueState {
	return academic.DueState{
		DaysOverdue:  days,
		DaysUntilDue: -days,
		DueAmount:    decimal.NewFromInt(30000),
		HasDues:      days > 0,
	}
}

func TestDashboardServicePortfolio(t *testing.T) {
	dues := &fakeDuesProvider{rosters: []academic.HostelRoster{
		{HostelID: "h1", HostelName: "North Wing", DueStates: []academic.DueState{overdueState(20), overdueState(-10)}},
		{HostelID: "h2", HostelName: "South Wing", DueStates: []academic.DueState{overdueState(40)}},
	}}
	svc := NewDashboardService(dues, nil, zap.NewNop(), DashboardServiceConfig{})

	resp, cached, err := svc.Portfolio(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, resp.Rows, 3)
	assert.Equal(t, academic.OverallLabel, resp.Rows[0].HostelName)
	assert.Equal(t, 3, resp.Rows[0].TotalStudents)
	assert.Equal(t, 2, resp.Rows[0].StudentsWithDues)
	assert.NotEmpty(t, resp.Periods.Code)
}

func TestDashboardServicePortfolioUsesCache(t *testing.T) {
	dues := &fakeDuesProvider{rosters: []academic.HostelRoster{
		{HostelID: "h1", HostelName: "North Wing", DueStates: []academic.DueState{overdueState(20)}},
	}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(dues, cache, zap.NewNop(), DashboardServiceConfig{})

	_, cached, err := svc.Portfolio(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)

	resp, cached, err := svc.Portfolio(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, dues.portfolioN)
	require.Len(t, resp.Rows, 2)
}

func TestDashboardServiceHostel(t *testing.T) {
	dues := &fakeDuesProvider{report: &HostelDueReport{
		Summary: academic.HostelSummary{HostelID: "h1", HostelName: "North Wing", TotalStudents: 2, StudentsWithDues: 1, TotalDueAmount: decimal.NewFromInt(30000), PctWithDues: 50},
	}}
	svc := NewDashboardService(dues, nil, zap.NewNop(), DashboardServiceConfig{})

	resp, cached, err := svc.Hostel(context.Background(), "h1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "h1", resp.HostelID)
	assert.Equal(t, 50, resp.Summary.PctWithDues)
}
