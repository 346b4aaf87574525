package aggregate

import (
	"context"
)

// Service is the read side over the derived tables.
type Service struct {
	repo Repository
}

// NewService creates the reports read service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetMonthlyReport returns the rollup for one month, zero-valued when the
// month has no approved entries yet.
func (s *Service) GetMonthlyReport(ctx context.Context, year, month int) (*MonthlyReport, error) {
	return s.repo.GetMonthlyReport(ctx, MonthKey{Year: year, Month: month})
}

// GetLiveInventory returns the tenant's current stock.
func (s *Service) GetLiveInventory(ctx context.Context) (*LiveInventory, error) {
	return s.repo.GetLiveInventory(ctx)
}
