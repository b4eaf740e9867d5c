package reporting

import (
	"fmt"
	"strings"
	"time"

	"airline-pricing-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	s := r.Stats

	sb.WriteString("# Pricing Analysis Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Policy: %s | Mode: %s\n\n", r.RunID, r.PolicyID, r.Mode))
	sb.WriteString(fmt.Sprintf("Trials: %d | Seats: %d | Horizon: %d days\n\n", s.TrialCount, s.SeatsTotal, s.HorizonDays))

	sb.WriteString("## Revenue Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mean | %.2f |\n", s.RevenueMean))
	sb.WriteString(fmt.Sprintf("| Std Dev | %.2f |\n", s.RevenueStddev))
	sb.WriteString(fmt.Sprintf("| Min | %.2f |\n", s.RevenueMin))
	sb.WriteString(fmt.Sprintf("| Max | %.2f |\n", s.RevenueMax))
	sb.WriteString("\n")

	sb.WriteString("## Capacity Utilization\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mean Unsold Seats | %.2f |\n", s.UnsoldSeatsMean))
	sb.WriteString(fmt.Sprintf("| Mean Load Factor | %.2f%% |\n", s.LoadFactorMean*100))
	sb.WriteString(fmt.Sprintf("| Load Factor Std Dev | %.2f%% |\n", s.LoadFactorStddev*100))
	sb.WriteString("\n")

	sb.WriteString("## Loss Analysis\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Mean Opportunity Cost | %.2f |\n", s.OpportunityCostMean))
	sb.WriteString(fmt.Sprintf("| Max Opportunity Cost | %.2f |\n", s.OpportunityCostMax))
	sb.WriteString("\n")

	sb.WriteString("## Weekly Price Pattern\n\n")
	switch {
	case !s.WeeklyAvailable:
		sb.WriteString(fmt.Sprintf("Unavailable: horizon of %d days is not a whole number of weeks.\n", s.HorizonDays))
	case len(s.WeeklyPrices) == 0:
		sb.WriteString("No priced days recorded.\n")
	default:
		sb.WriteString("| Week | Avg Price | Samples |\n")
		sb.WriteString("|------|-----------|---------|\n")
		for _, w := range s.WeeklyPrices {
			sb.WriteString(fmt.Sprintf("| %d | %.2f | %d |\n", w.Week, w.AvgPrice, w.Samples))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Risk Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| 5th Percentile Revenue | %.2f |\n", s.RevenueP5))
	sb.WriteString(fmt.Sprintf("| Value at Risk (5%%) | %.2f |\n", s.ValueAtRisk5))
	if s.RevenueVolatility != nil {
		sb.WriteString(fmt.Sprintf("| Revenue Volatility | %.4f |\n", *s.RevenueVolatility))
	} else {
		sb.WriteString("| Revenue Volatility | n/a |\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Best Performance\n\n")
	sb.WriteString(fmt.Sprintf("- Trial: %s\n", shortID(s.BestTrialID)))
	sb.WriteString(fmt.Sprintf("- Revenue: %.2f\n", s.BestRevenue))
	sb.WriteString(fmt.Sprintf("- Load Factor: %.2f%%\n", s.BestLoadFactor*100))
	sb.WriteString(fmt.Sprintf("- Avg Price: %.2f\n", s.BestAvgPrice))
	sb.WriteString("\n")

	sb.WriteString("## Trials\n\n")
	if len(r.Trials) > 0 {
		sb.WriteString("| # | Flight | Revenue | Sold | Remaining | Avg Price | Avg Demand | Load Factor | Opp. Cost | Fallback Days |\n")
		sb.WriteString("|---|--------|---------|------|-----------|-----------|------------|-------------|-----------|---------------|\n")
		for _, t := range r.Trials {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f%% | %.2f | %d |\n",
				t.TrialIndex+1, flightLabel(t.FlightID), t.TotalRevenue, t.TotalSales, t.RemainingSeats,
				t.AvgPrice, t.AvgDemand, t.LoadFactor*100, t.OpportunityCost, t.FallbackDemandDays))
		}
	} else {
		sb.WriteString("No trials recorded.\n")
	}
	sb.WriteString("\n")

	if r.Detail != nil {
		sb.WriteString(fmt.Sprintf("## Daily Detail (trial %d, flight %s)\n\n", r.Detail.TrialIndex+1, flightLabel(r.Detail.FlightID)))
		renderDays(&sb, r.Detail.Days)
		sb.WriteString("\n")
	}

	if rm := r.Reproducibility; rm.GeneratorVersion != "" {
		sb.WriteString("## Reproducibility\n\n")
		sb.WriteString(fmt.Sprintf("- Generator: %s\n", rm.GeneratorVersion))
		sb.WriteString(fmt.Sprintf("- Data version: %s\n", rm.DataVersion))
		sb.WriteString(fmt.Sprintf("- Commit: %s\n", rm.CommitHash))
		sb.WriteString(fmt.Sprintf("- Replay: `%s`\n", rm.ReplayCommand))
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderDays(sb *strings.Builder, days []domain.DayRecord) {
	sb.WriteString("| Day | Days Left | Demand | Price | Historical | Sold | Revenue | Seats Left |\n")
	sb.WriteString("|-----|-----------|--------|-------|------------|------|---------|------------|\n")
	for _, d := range days {
		demand := fmt.Sprintf("%.2f", d.DemandLevel)
		if d.DemandFallback {
			demand += "*"
		}
		sb.WriteString(fmt.Sprintf("| %d | %d | %s | %.2f | %s | %.2f | %.2f | %.2f |\n",
			d.Day, d.DaysLeft, demand, d.Price, priceLabel(d.HistoricalPrice), d.QuantitySold, d.Revenue, d.SeatsRemaining))
	}
}

func flightLabel(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func priceLabel(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
