package pricing

import "math"

// Business-class rule coefficients.
const (
	businessDemandPivot        = 25.0
	businessInventoryWeight    = 0.3
	businessTimeHorizonDays    = 30.0
	businessTimeWeight         = 0.2
	businessHighDemand         = 30.0
	businessLowDemand          = 20.0
	businessHighDemandPremium  = 1.10
	businessLowDemandDiscount  = 0.95
	businessLastMinuteDays     = 3
	businessLastMinuteSeats    = 20.0
	businessLastMinuteDiscount = 0.90
	businessLastMinutePremium  = 1.10
)

// BusinessConfig parameterizes the business-class policy and its settlement model.
type BusinessConfig struct {
	BasePrice  float64
	MinPrice   float64
	MaxPrice   float64
	Elasticity float64 // price elasticity of demand, 0..1
	TotalSeats float64 // capacity used for inventory pressure
}

// DefaultBusinessConfig returns the business-class coefficients.
func DefaultBusinessConfig() BusinessConfig {
	return BusinessConfig{
		BasePrice:  900,
		MinPrice:   800,
		MaxPrice:   1200,
		Elasticity: 0.5,
		TotalSeats: 50,
	}
}

// BusinessPrice computes the business-class price.
// Factor order matters: base * demand * inventory * time, then tier, then last-minute, clamp last.
func BusinessPrice(cfg BusinessConfig, daysLeft int, ticketsLeft, demand float64) float64 {
	if ticketsLeft <= 0 {
		return 0
	}

	demandFactor := 1 + math.Max(0, (demand-businessDemandPivot)/businessDemandPivot)
	inventoryFactor := 1 + math.Max(0, 1-ticketsLeft/cfg.TotalSeats)*businessInventoryWeight
	timeFactor := 1 + math.Max(0, 1-float64(daysLeft)/businessTimeHorizonDays)*businessTimeWeight

	price := cfg.BasePrice * demandFactor * inventoryFactor * timeFactor

	if demand > businessHighDemand {
		price *= businessHighDemandPremium
	} else if demand < businessLowDemand {
		price *= businessLowDemandDiscount
	}

	if daysLeft <= businessLastMinuteDays {
		if ticketsLeft > businessLastMinuteSeats {
			price *= businessLastMinuteDiscount
		} else {
			price *= businessLastMinutePremium
		}
	}

	return math.Max(cfg.MinPrice, math.Min(price, cfg.MaxPrice))
}

// BusinessSettle applies the elasticity adjustment to demand and sells up to ticketsLeft.
func BusinessSettle(cfg BusinessConfig, price, demand, ticketsLeft float64) Settlement {
	actual := demand * (1 - cfg.Elasticity*(price-cfg.BasePrice)/cfg.BasePrice)
	actual = math.Max(0, math.Min(actual, demand))

	quantity := math.Min(actual, ticketsLeft)
	if quantity < 0 {
		quantity = 0
	}
	return Settlement{
		Quantity: quantity,
		Revenue:  price * quantity,
	}
}
