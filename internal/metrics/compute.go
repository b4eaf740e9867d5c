// Package metrics reduces completed trials into per-trial summaries and
// cross-trial statistics.
package metrics

import (
	"math"
	"sort"

	"airline-pricing-lab/internal/domain"
)

const (
	daysPerWeek   = 7
	varPercentile = 0.05
)

// Summarize derives the per-trial view of a result.
func Summarize(t *domain.TrialResult) domain.TrialSummary {
	s := domain.TrialSummary{
		TrialID:        t.TrialID,
		TrialIndex:     t.TrialIndex,
		FlightID:       t.FlightID,
		TotalRevenue:   t.TotalRevenue,
		RemainingSeats: t.RemainingSeats,
		DaysSimulated:  len(t.Days),
	}

	prices := make([]float64, len(t.Days))
	demands := make([]float64, len(t.Days))
	for i, d := range t.Days {
		prices[i] = d.Price
		demands[i] = d.DemandLevel
		s.TotalSales += d.QuantitySold
		if d.DemandFallback {
			s.FallbackDemandDays++
		}
	}
	s.AvgPrice = computeMean(prices)
	s.AvgDemand = computeMean(demands)
	s.LoadFactor = loadFactor(t)
	s.OpportunityCost = float64(t.SeatsTotal)*s.AvgPrice - t.TotalRevenue
	return s
}

// Summaries summarizes each trial, preserving order.
func Summaries(trials []*domain.TrialResult) []domain.TrialSummary {
	out := make([]domain.TrialSummary, len(trials))
	for i, t := range trials {
		out[i] = Summarize(t)
	}
	return out
}

// loadFactor is the sold fraction of capacity in [0, 1].
func loadFactor(t *domain.TrialResult) float64 {
	if t.SeatsTotal <= 0 {
		return 0
	}
	return (float64(t.SeatsTotal) - t.RemainingSeats) / float64(t.SeatsTotal)
}

// computeFromTrials calculates the aggregate over a non-empty slice of trials.
// Run shape (policy, seats, horizon) is taken from the first trial.
func computeFromTrials(trials []*domain.TrialResult) *domain.AggregateStats {
	n := len(trials)
	first := trials[0]

	summaries := Summaries(trials)
	revenues := make([]float64, n)
	loadFactors := make([]float64, n)
	unsold := make([]float64, n)
	oppCosts := make([]float64, n)
	best := 0
	for i, s := range summaries {
		revenues[i] = s.TotalRevenue
		loadFactors[i] = s.LoadFactor
		unsold[i] = s.RemainingSeats
		oppCosts[i] = s.OpportunityCost
		if s.TotalRevenue > summaries[best].TotalRevenue {
			best = i
		}
	}

	sortedRevenues := append([]float64(nil), revenues...)
	sort.Float64s(sortedRevenues)

	revMean := computeMean(revenues)
	revStd := computeStddev(revenues, revMean)
	lfMean := computeMean(loadFactors)
	p5 := computePercentile(sortedRevenues, varPercentile)

	agg := &domain.AggregateStats{
		Policy:      first.Policy,
		TrialCount:  n,
		SeatsTotal:  first.SeatsTotal,
		HorizonDays: first.HorizonDays,

		RevenueMean:   revMean,
		RevenueStddev: revStd,
		RevenueMin:    sortedRevenues[0],
		RevenueMax:    sortedRevenues[n-1],

		UnsoldSeatsMean:  computeMean(unsold),
		LoadFactorMean:   lfMean,
		LoadFactorStddev: computeStddev(loadFactors, lfMean),

		OpportunityCostMean: computeMean(oppCosts),
		OpportunityCostMax:  computeMax(oppCosts),

		RevenueP5:    p5,
		ValueAtRisk5: revMean - p5,

		BestTrialID:    summaries[best].TrialID,
		BestRevenue:    summaries[best].TotalRevenue,
		BestLoadFactor: summaries[best].LoadFactor,
		BestAvgPrice:   summaries[best].AvgPrice,
	}

	if revMean != 0 {
		v := revStd / revMean
		agg.RevenueVolatility = &v
	}

	agg.WeeklyAvailable, agg.WeeklyPrices = computeWeeklyPrices(trials, first.HorizonDays)
	return agg
}

// computeWeeklyPrices averages recorded prices per 7-day block across trials.
// The breakdown is unavailable unless the horizon splits into whole weeks;
// weeks with no recorded day (every trial sold out earlier) are omitted.
func computeWeeklyPrices(trials []*domain.TrialResult, horizon int) (bool, []domain.WeeklyPrice) {
	if horizon <= 0 || horizon%daysPerWeek != 0 {
		return false, nil
	}

	weeks := horizon / daysPerWeek
	sums := make([]float64, weeks)
	counts := make([]int, weeks)
	for _, t := range trials {
		for _, d := range t.Days {
			w := (d.Day - 1) / daysPerWeek
			if w < 0 || w >= weeks {
				continue
			}
			sums[w] += d.Price
			counts[w]++
		}
	}

	var out []domain.WeeklyPrice
	for w := 0; w < weeks; w++ {
		if counts[w] == 0 {
			continue
		}
		out = append(out, domain.WeeklyPrice{
			Week:     w + 1,
			AvgPrice: sums[w] / float64(counts[w]),
			Samples:  counts[w],
		})
	}
	return true, out
}

// computeMean returns the arithmetic mean, accumulated as offsets from the
// first value so identical inputs yield that value exactly.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	base := values[0]
	sum := 0.0
	for _, v := range values {
		sum += v - base
	}
	return base + sum/float64(len(values))
}

// computeStddev calculates population standard deviation (n denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}

func computeMax(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// computePercentile uses linear interpolation between closest ranks.
// sorted must be pre-sorted ASC; p is a fraction (0.05 = 5th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
