package analytics

import (
	"sort"
	"time"

	"tradeledger/internal/domain"
)

// Report holds aggregate statistics over a set of closed trades. All
// profit-based figures use the side-aware quote profit; all ratio figures
// use the stored realized risk/reward, so rows without a usable stop
// distance count toward totals but not toward the ratio metrics.
type Report struct {
	// Basic Metrics
	TotalTrades int
	Wins        int
	Losses      int
	Flat        int // breakeven closes and legacy rows without prices
	WinRate     float64
	TotalProfit float64

	// Risk/Reward Metrics
	RRComputable int     // trades with a stop set away from entry
	AvgRR        float64 // mean signed RR over computable trades
	BestRR       float64
	WorstRR      float64
	ProfitFactor float64 // gross winning RR over gross losing RR

	// Advanced Metrics
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageHold          time.Duration // over trades with a known open time
	ByReason             map[domain.CloseReason]int
	FirstClose           time.Time
	LastClose            time.Time
}

// ReasonCount pairs a close reason with how many trades carried it.
type ReasonCount struct {
	Reason domain.CloseReason
	Count  int
}

// Summarize calculates aggregate statistics from closed trades.
func Summarize(trades []*domain.ClosedTrade) *Report {
	report := &Report{
		ByReason: make(map[domain.CloseReason]int),
	}

	if len(trades) == 0 {
		return report
	}

	// Sort trades by close time
	sorted := make([]*domain.ClosedTrade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
	})

	report.FirstClose = sorted[0].ClosedAt
	report.LastClose = sorted[len(sorted)-1].ClosedAt

	var consecutiveWins, consecutiveLosses int
	var grossWinRR, grossLossRR float64
	var sumRR float64
	var holdTotal time.Duration
	var holdCount int

	// Process each trade
	for _, trade := range sorted {
		report.TotalTrades++
		report.ByReason[trade.Reason]++

		profit := trade.Profit()
		report.TotalProfit += profit
		switch {
		case profit > 0:
			report.Wins++
			consecutiveWins++
			consecutiveLosses = 0
		case profit < 0:
			report.Losses++
			consecutiveLosses++
			consecutiveWins = 0
		default:
			report.Flat++
			consecutiveWins = 0
			consecutiveLosses = 0
		}
		if consecutiveWins > report.MaxConsecutiveWins {
			report.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > report.MaxConsecutiveLosses {
			report.MaxConsecutiveLosses = consecutiveLosses
		}

		// RR is only meaningful when the trade carried a real stop.
		if trade.StopPrice != 0 && trade.StopPrice != trade.EntryPrice {
			report.RRComputable++
			sumRR += trade.RR
			if report.RRComputable == 1 || trade.RR > report.BestRR {
				report.BestRR = trade.RR
			}
			if report.RRComputable == 1 || trade.RR < report.WorstRR {
				report.WorstRR = trade.RR
			}
			if trade.RR > 0 {
				grossWinRR += trade.RR
			} else {
				grossLossRR -= trade.RR
			}
		}

		if !trade.OpenedAt.IsZero() {
			holdTotal += trade.ClosedAt.Sub(trade.OpenedAt)
			holdCount++
		}
	}

	// Calculate final metrics
	report.WinRate = float64(report.Wins) / float64(report.TotalTrades)
	if report.RRComputable > 0 {
		report.AvgRR = sumRR / float64(report.RRComputable)
	}
	if grossLossRR > 0 {
		report.ProfitFactor = grossWinRR / grossLossRR
	}
	if holdCount > 0 {
		report.AverageHold = holdTotal / time.Duration(holdCount)
	}

	return report
}

// ReasonCounts returns the per-reason breakdown sorted by count descending,
// ties broken alphabetically so output is stable.
func (r *Report) ReasonCounts() []ReasonCount {
	counts := make([]ReasonCount, 0, len(r.ByReason))
	for reason, count := range r.ByReason {
		counts = append(counts, ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Reason < counts[j].Reason
	})
	return counts
}
