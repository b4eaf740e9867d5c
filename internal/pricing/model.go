package pricing

import (
	"fmt"

	"airline-pricing-lab/internal/domain"
)

// Settlement is the outcome of selling at a price for one day.
type Settlement struct {
	Quantity float64
	Revenue  float64
}

// Model pairs a pricing policy with its matching settlement model.
// It is immutable and safe for concurrent use.
type Model struct {
	kind     domain.PolicyKind
	elastic  ElasticConfig
	business BusinessConfig
}

// Kind returns the fare-class tag.
func (m *Model) Kind() domain.PolicyKind {
	return m.kind
}

// ID returns the policy identifier including parameters.
func (m *Model) ID() string {
	switch m.kind {
	case domain.PolicyElastic:
		return fmt.Sprintf("%s_%.0f", m.kind, m.elastic.ExpectedFutureDemand)
	case domain.PolicyBusinessClass:
		return fmt.Sprintf("%s_%.0f_%.0f_%.0f", m.kind, m.business.BasePrice, m.business.MinPrice, m.business.MaxPrice)
	default:
		return string(m.kind)
	}
}

// Price returns the policy price for the day.
func (m *Model) Price(daysLeft int, ticketsLeft, demand float64) float64 {
	switch m.kind {
	case domain.PolicyBusinessClass:
		return BusinessPrice(m.business, daysLeft, ticketsLeft, demand)
	default:
		return ElasticPrice(m.elastic, daysLeft, ticketsLeft, demand)
	}
}

// Settle returns quantity sold and revenue at price.
func (m *Model) Settle(price, demand, ticketsLeft float64) Settlement {
	switch m.kind {
	case domain.PolicyBusinessClass:
		return BusinessSettle(m.business, price, demand, ticketsLeft)
	default:
		return ElasticSettle(price, demand, ticketsLeft)
	}
}
