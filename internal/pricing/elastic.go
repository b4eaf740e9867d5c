package pricing

import "math"

// ElasticConfig parameterizes the economy-class elastic policy.
type ElasticConfig struct {
	ExpectedFutureDemand float64 // assumed demand on every remaining day
	FutureWeightPerDay   float64 // weight per remaining day beyond today
	CurrentWeight        float64 // weight of today's observed demand
	FloorPrice           float64 // lowest price outside the last day
}

// DefaultElasticConfig returns the economy-class coefficients.
func DefaultElasticConfig() ElasticConfig {
	return ElasticConfig{
		ExpectedFutureDemand: 150,
		FutureWeightPerDay:   0.5,
		CurrentWeight:        1.0,
		FloorPrice:           1,
	}
}

// ElasticPrice computes the economy-class price.
//
// On the last day the price is min(demand/2, demand-1). Otherwise today's demand is
// blended with the expected future demand, halved, tightened to demand-ticketsLeft
// when projected sales would exceed inventory, and clamped to [floor, demand-1].
func ElasticPrice(cfg ElasticConfig, daysLeft int, ticketsLeft, demand float64) float64 {
	if ticketsLeft <= 0 {
		return 0
	}
	if daysLeft <= 0 {
		return 0
	}

	if daysLeft == 1 {
		// Non-negative contract: demand below 1 would otherwise price negative.
		return math.Max(0, math.Min(demand/2, demand-1))
	}

	futureWeight := float64(daysLeft-1) * cfg.FutureWeightPerDay
	blended := (cfg.CurrentWeight*demand + futureWeight*cfg.ExpectedFutureDemand) /
		(cfg.CurrentWeight + futureWeight)
	price := blended / 2

	// Projected sales at this price exceed inventory: raise price to sell exactly ticketsLeft.
	if demand-price > ticketsLeft {
		price = demand - ticketsLeft
	}

	return math.Max(cfg.FloorPrice, math.Min(price, demand-1))
}

// ElasticSettle converts a price into seats sold and revenue.
// Quantity is clamped at zero when price exceeds demand.
func ElasticSettle(price, demand, ticketsLeft float64) Settlement {
	quantity := math.Min(demand-price, ticketsLeft)
	if quantity < 0 {
		quantity = 0
	}
	return Settlement{
		Quantity: quantity,
		Revenue:  price * quantity,
	}
}
