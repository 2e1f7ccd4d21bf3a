// Package analytics computes read-only aggregates over the record set for
// the dashboard: income/expense totals, per-category breakdown, and a
// smoothed daily spending trend.
package analytics

import (
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// trendWindow is the SMA window (in days) for the spending trend.
const trendWindow = 7

// Summary is the dashboard aggregate served to the UI
type Summary struct {
	Records       int                `json:"records"`
	Income        float64            `json:"income"`
	Expenses      float64            `json:"expenses"`
	Balance       float64            `json:"balance"`
	ByCategory    map[string]float64 `json:"by_category"`
	DailyMean     float64            `json:"daily_mean"`
	DailyStdDev   float64            `json:"daily_std_dev"`
	TrendDates    []string           `json:"trend_dates"`
	SpendingTrend []float64          `json:"spending_trend"`
}

// Service computes dashboard aggregates
type Service struct {
	store *ledger.Store
	log   zerolog.Logger
}

// NewService creates a new analytics service
func NewService(store *ledger.Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("service", "analytics").Logger(),
	}
}

// Summarize aggregates the current record set.
// The spending trend is a 7-day simple moving average over daily net flow;
// it needs at least one full window of days to produce values.
func (s *Service) Summarize() *Summary {
	records := s.store.List()

	summary := &Summary{
		Records:    len(records),
		ByCategory: make(map[string]float64),
	}

	daily := make(map[string]float64)
	for _, r := range records {
		if r.Amount >= 0 {
			summary.Income += r.Amount
		} else {
			summary.Expenses += -r.Amount
		}
		summary.ByCategory[r.Category] += r.Amount
		daily[r.Date.Format("2006-01-02")] += r.Amount
	}
	summary.Balance = summary.Income - summary.Expenses

	if len(daily) == 0 {
		return summary
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	flows := make([]float64, len(dates))
	for i, d := range dates {
		flows[i] = daily[d]
	}

	summary.DailyMean = stat.Mean(flows, nil)
	if len(flows) > 1 {
		summary.DailyStdDev = stat.StdDev(flows, nil)
	}

	if len(flows) >= trendWindow {
		sma := talib.Sma(flows, trendWindow)
		// talib pads the warm-up period with zeros; serve only the valid tail.
		summary.TrendDates = dates[trendWindow-1:]
		summary.SpendingTrend = sma[trendWindow-1:]
	}

	return summary
}
