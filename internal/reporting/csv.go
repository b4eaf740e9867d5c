package reporting

import (
	"fmt"
	"strings"

	"airline-pricing-lab/internal/domain"
)

// RenderTrialsCSV renders trial summaries as CSV string.
func RenderTrialsCSV(trials []domain.TrialSummary) string {
	var sb strings.Builder

	sb.WriteString("trial_index,trial_id,flight_id,total_revenue,total_sales,remaining_seats,")
	sb.WriteString("avg_price,avg_demand,load_factor,opportunity_cost,days_simulated,fallback_demand_days\n")

	for _, t := range trials {
		flight := ""
		if t.FlightID != nil {
			flight = fmt.Sprintf("%d", *t.FlightID)
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%d\n",
			t.TrialIndex,
			t.TrialID,
			flight,
			t.TotalRevenue,
			t.TotalSales,
			t.RemainingSeats,
			t.AvgPrice,
			t.AvgDemand,
			t.LoadFactor,
			t.OpportunityCost,
			t.DaysSimulated,
			t.FallbackDemandDays,
		))
	}

	return sb.String()
}

// RenderDaysCSV renders the daily trace of one trial as CSV string.
func RenderDaysCSV(days []domain.DayRecord) string {
	var sb strings.Builder

	sb.WriteString("day,days_left,demand_level,price,historical_price,quantity_sold,revenue,seats_remaining,demand_fallback\n")

	for _, d := range days {
		historical := ""
		if d.HistoricalPrice != nil {
			historical = fmt.Sprintf("%.6f", *d.HistoricalPrice)
		}
		sb.WriteString(fmt.Sprintf("%d,%d,%.6f,%.6f,%s,%.6f,%.6f,%.6f,%t\n",
			d.Day,
			d.DaysLeft,
			d.DemandLevel,
			d.Price,
			historical,
			d.QuantitySold,
			d.Revenue,
			d.SeatsRemaining,
			d.DemandFallback,
		))
	}

	return sb.String()
}
