package dto

import (
	"time"

	"gasflow/internal/core/types"
	"gasflow/internal/domain/aggregate"
)

// --- Response DTOs ---

type MonthlyReportResponse struct {
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	TotalRevenue  types.Money    `json:"totalRevenue"`
	TotalExpenses types.Money    `json:"totalExpenses"`
	NetProfit     types.Money    `json:"netProfit"`
	TotalKgSold   types.Quantity `json:"totalKgSold"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func FromMonthlyReport(r *aggregate.MonthlyReport) MonthlyReportResponse {
	return MonthlyReportResponse{
		Year:          r.Year,
		Month:         r.Month,
		TotalRevenue:  r.TotalRevenue,
		TotalExpenses: r.TotalExpenses,
		NetProfit:     r.TotalRevenue.Sub(r.TotalExpenses),
		TotalKgSold:   r.TotalKgSold,
		UpdatedAt:     r.UpdatedAt,
	}
}

type LiveInventoryResponse struct {
	CurrentStockKg types.Quantity `json:"currentStockKg"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func FromLiveInventory(inv *aggregate.LiveInventory) LiveInventoryResponse {
	return LiveInventoryResponse{
		CurrentStockKg: inv.CurrentStockKg,
		UpdatedAt:      inv.UpdatedAt,
	}
}
