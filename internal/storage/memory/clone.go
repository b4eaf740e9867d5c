package memory

import "airline-pricing-lab/internal/domain"

// cloneTrial deep-copies a trial so callers never share the stored trace.
func cloneTrial(t *domain.TrialResult) *domain.TrialResult {
	c := *t
	if t.FlightID != nil {
		id := *t.FlightID
		c.FlightID = &id
	}
	c.Days = cloneDays(t.Days)
	return &c
}

func cloneDays(days []domain.DayRecord) []domain.DayRecord {
	if days == nil {
		return nil
	}
	out := make([]domain.DayRecord, len(days))
	for i, d := range days {
		out[i] = d
		if d.HistoricalPrice != nil {
			p := *d.HistoricalPrice
			out[i].HistoricalPrice = &p
		}
	}
	return out
}

func cloneAggregate(a *domain.AggregateStats) *domain.AggregateStats {
	c := *a
	if a.RevenueVolatility != nil {
		v := *a.RevenueVolatility
		c.RevenueVolatility = &v
	}
	if a.WeeklyPrices != nil {
		c.WeeklyPrices = append([]domain.WeeklyPrice(nil), a.WeeklyPrices...)
	}
	return &c
}
