// Package analytics holds the pure aggregations behind the dashboard read endpoints.
package analytics

import (
	"github.com/shopspring/decimal"
	"github.com/wuyiadepoju/enrollment-ledger/internal/app/enrollment/domain"
)

var hundred = decimal.NewFromInt(100)

// PriorityBreakdown counts failed charges per priority level
type PriorityBreakdown struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// FailedChargeStats is the failed-charge recovery summary
type FailedChargeStats struct {
	TotalFailedCharges  int               `json:"totalFailedCharges"`
	TotalAtRisk         float64           `json:"totalAtRisk"`
	Resolved            int               `json:"resolved"`
	Contacted           int               `json:"contacted"`
	Pending             int               `json:"pending"`
	RecoveryRate        float64           `json:"recoveryRate"`
	TotalCustomers      int               `json:"totalCustomers"`
	PriorityBreakdown   PriorityBreakdown `json:"priorityBreakdown"`
	AverageFailedAmount float64           `json:"averageFailedAmount"`
}

// ComputeFailedChargeStats summarizes failed charges.
// Money is rounded half-up to 2 places and the recovery rate to 1 place.
// Blank statuses count as pending and blank priorities as medium.
func ComputeFailedChargeStats(records []domain.FailedCharge, totalCustomers int) FailedChargeStats {
	stats := FailedChargeStats{
		TotalFailedCharges: len(records),
		TotalCustomers:     totalCustomers,
	}
	if stats.TotalCustomers < 0 {
		stats.TotalCustomers = 0
	}

	atRisk := decimal.Zero
	for _, r := range records {
		r = r.Normalize()
		atRisk = atRisk.Add(r.FailedAmount)

		switch r.RecoveryStatus {
		case domain.RecoveryResolved:
			stats.Resolved++
		case domain.RecoveryContacted:
			stats.Contacted++
		case domain.RecoveryPending:
			stats.Pending++
		}

		switch r.PriorityLevel {
		case domain.PriorityHigh:
			stats.PriorityBreakdown.High++
		case domain.PriorityMedium:
			stats.PriorityBreakdown.Medium++
		case domain.PriorityLow:
			stats.PriorityBreakdown.Low++
		}
	}

	stats.TotalAtRisk = atRisk.Round(2).InexactFloat64()
	if len(records) == 0 {
		return stats
	}

	total := decimal.NewFromInt(int64(len(records)))
	rate := decimal.NewFromInt(int64(stats.Resolved)).Mul(hundred).Div(total).Round(1)
	stats.RecoveryRate = clampPercent(rate).InexactFloat64()
	stats.AverageFailedAmount = atRisk.Div(total).Round(2).InexactFloat64()
	return stats
}

func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
