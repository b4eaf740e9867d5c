package pricing

import (
	"errors"

	"airline-pricing-lab/internal/domain"
)

// Factory errors
var (
	ErrUnknownPolicyKind  = errors.New("unknown policy kind")
	ErrInvalidPriceBounds = errors.New("BUSINESS_CLASS requires 0 <= MinPrice <= MaxPrice")
	ErrInvalidBasePrice   = errors.New("BUSINESS_CLASS requires BasePrice > 0")
	ErrInvalidTotalSeats  = errors.New("BUSINESS_CLASS requires TotalSeats > 0")
	ErrInvalidElasticity  = errors.New("BUSINESS_CLASS requires Elasticity in [0, 1]")
	ErrInvalidWeights     = errors.New("ELASTIC requires CurrentWeight > 0 and FutureWeightPerDay >= 0")
)

// Config selects and parameterizes a pricing model.
// Nil parameter blocks fall back to the defaults for the kind.
type Config struct {
	Kind     domain.PolicyKind
	Elastic  *ElasticConfig
	Business *BusinessConfig
}

// FromConfig creates a Model from Config.
// Validates required parameters per policy kind.
func FromConfig(cfg Config) (*Model, error) {
	switch cfg.Kind {
	case domain.PolicyElastic:
		return fromElasticConfig(cfg)
	case domain.PolicyBusinessClass:
		return fromBusinessConfig(cfg)
	default:
		return nil, ErrUnknownPolicyKind
	}
}

// ParseKind normalizes a CLI/env policy name.
func ParseKind(s string) (domain.PolicyKind, error) {
	switch s {
	case "elastic", "ELASTIC", "economy", "ECONOMY":
		return domain.PolicyElastic, nil
	case "business", "BUSINESS", "business_class", "BUSINESS_CLASS":
		return domain.PolicyBusinessClass, nil
	default:
		return "", ErrUnknownPolicyKind
	}
}

func fromElasticConfig(cfg Config) (*Model, error) {
	ec := DefaultElasticConfig()
	if cfg.Elastic != nil {
		ec = *cfg.Elastic
	}
	if ec.CurrentWeight <= 0 || ec.FutureWeightPerDay < 0 {
		return nil, ErrInvalidWeights
	}
	return &Model{kind: domain.PolicyElastic, elastic: ec}, nil
}

func fromBusinessConfig(cfg Config) (*Model, error) {
	bc := DefaultBusinessConfig()
	if cfg.Business != nil {
		bc = *cfg.Business
	}
	if bc.BasePrice <= 0 {
		return nil, ErrInvalidBasePrice
	}
	if bc.MinPrice < 0 || bc.MinPrice > bc.MaxPrice {
		return nil, ErrInvalidPriceBounds
	}
	if bc.TotalSeats <= 0 {
		return nil, ErrInvalidTotalSeats
	}
	if bc.Elasticity < 0 || bc.Elasticity > 1 {
		return nil, ErrInvalidElasticity
	}
	return &Model{kind: domain.PolicyBusinessClass, business: bc}, nil
}
