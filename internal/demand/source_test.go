package demand

import (
	"errors"
	"math"
	"strings"
	"testing"

	"airline-pricing-lab/internal/dataset"
	"airline-pricing-lab/internal/domain"
)

func testView(t *testing.T) *dataset.View {
	t.Helper()
	table, err := dataset.ParseCSV(strings.NewReader(
		"Flight ID,Days Before Departure,Demand,Price,Class\n" +
			"7,2,31,950,Business\n" +
			"7,1,24,,Business\n" +
			"7,3,150,200,Economy\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return table.FilterClass("Business")
}

func TestRandomSource_WithinRange(t *testing.T) {
	src, err := NewRandomSource(domain.DemandRangeElastic, 42)
	if err != nil {
		t.Fatalf("NewRandomSource: %v", err)
	}
	for i := 0; i < 1000; i++ {
		obs, err := src.Demand(Query{DayIndex: i})
		if err != nil {
			t.Fatalf("Demand: %v", err)
		}
		if obs.Level < 100 || obs.Level >= 200 {
			t.Fatalf("draw %v outside [100, 200)", obs.Level)
		}
	}
}

func TestRandomSource_Deterministic(t *testing.T) {
	a, _ := NewRandomSource(domain.DemandRangeBusinessClass, 7)
	b, _ := NewRandomSource(domain.DemandRangeBusinessClass, 7)
	for i := 0; i < 50; i++ {
		x, _ := a.Demand(Query{})
		y, _ := b.Demand(Query{})
		if x.Level != y.Level {
			t.Fatalf("draw %d differs: %v != %v", i, x.Level, y.Level)
		}
	}
}

func TestRandomSource_InvalidRange(t *testing.T) {
	_, err := NewRandomSource(domain.DemandRange{Min: 10, Max: 5}, 1)
	if !errors.Is(err, ErrInvalidDemandRange) {
		t.Errorf("expected ErrInvalidDemandRange, got %v", err)
	}
}

func TestHistoricalSource_LookupAndFallback(t *testing.T) {
	fb, _ := NewRandomSource(domain.DemandRangeBusinessClass, 1)
	src, err := NewHistoricalSource(testView(t), fb, nil)
	if err != nil {
		t.Fatalf("NewHistoricalSource: %v", err)
	}

	obs, err := src.Demand(Query{FlightID: 7, DaysBeforeDeparture: 2})
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if obs.Level != 31 || obs.Fallback || obs.HistoricalPrice == nil || *obs.HistoricalPrice != 950 {
		t.Errorf("unexpected observation %+v", obs)
	}

	// Economy row is filtered out upstream, so this falls back.
	obs, err = src.Demand(Query{FlightID: 7, DaysBeforeDeparture: 3})
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if !obs.Fallback || obs.Level < 20 || obs.Level >= 40 {
		t.Errorf("expected fallback draw in [20, 40), got %+v", obs)
	}
	if src.Fallbacks() != 1 {
		t.Errorf("expected 1 fallback, got %d", src.Fallbacks())
	}
}

func TestHistoricalSource_NonFiniteDemandFallsBack(t *testing.T) {
	badPrice := math.Inf(1)
	view := dataset.NewTable([]dataset.Row{
		{FlightID: 1, DaysBeforeDeparture: 2, Demand: math.NaN(), Class: "Business"},
		{FlightID: 1, DaysBeforeDeparture: 1, Demand: math.Inf(1), Class: "Business"},
		{FlightID: 2, DaysBeforeDeparture: 1, Demand: 25, Price: &badPrice, Class: "Business"},
	}).FilterClass("Business")

	fb, _ := NewRandomSource(domain.DemandRangeBusinessClass, 3)
	src, err := NewHistoricalSource(view, fb, nil)
	if err != nil {
		t.Fatalf("NewHistoricalSource: %v", err)
	}

	for _, days := range []int{2, 1} {
		obs, err := src.Demand(Query{FlightID: 1, DaysBeforeDeparture: days})
		if err != nil {
			t.Fatalf("Demand: %v", err)
		}
		if !obs.Fallback || obs.Level < 20 || obs.Level >= 40 {
			t.Errorf("days %d: expected fallback draw in [20, 40), got %+v", days, obs)
		}
	}
	if src.Fallbacks() != 2 {
		t.Errorf("expected 2 fallbacks, got %d", src.Fallbacks())
	}

	obs, err := src.Demand(Query{FlightID: 2, DaysBeforeDeparture: 1})
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if obs.Level != 25 || obs.Fallback || obs.HistoricalPrice != nil {
		t.Errorf("expected dataset demand without price, got %+v", obs)
	}

	noFallback, _ := NewHistoricalSource(view, nil, nil)
	if _, err := noFallback.Demand(Query{FlightID: 1, DaysBeforeDeparture: 2}); !errors.Is(err, ErrNoDemandSource) {
		t.Errorf("expected ErrNoDemandSource, got %v", err)
	}
}

func TestHistoricalSource_NoFallback(t *testing.T) {
	src, err := NewHistoricalSource(testView(t), nil, nil)
	if err != nil {
		t.Fatalf("NewHistoricalSource: %v", err)
	}
	_, err = src.Demand(Query{FlightID: 99, DaysBeforeDeparture: 1})
	if !errors.Is(err, ErrNoDemandSource) {
		t.Errorf("expected ErrNoDemandSource, got %v", err)
	}
}

func TestHistoricalSource_NothingConfigured(t *testing.T) {
	if _, err := NewHistoricalSource(nil, nil, nil); !errors.Is(err, ErrNoDemandSource) {
		t.Errorf("expected ErrNoDemandSource, got %v", err)
	}
	if _, err := NewHistoricalFactory(nil, domain.DemandRange{}, 0, nil); !errors.Is(err, ErrNoDemandSource) {
		t.Errorf("expected ErrNoDemandSource from factory, got %v", err)
	}
	if _, err := NewRandomFactory(domain.DemandRange{}, 0); !errors.Is(err, ErrNoDemandSource) {
		t.Errorf("expected ErrNoDemandSource from random factory, got %v", err)
	}
}

func TestHistoricalFactory_DatasetUnavailable(t *testing.T) {
	factory, err := NewHistoricalFactory(nil, domain.DemandRangeBusinessClass, 5, nil)
	if err != nil {
		t.Fatalf("NewHistoricalFactory: %v", err)
	}
	src, err := factory(0)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	obs, err := src.Demand(Query{FlightID: 1, DaysBeforeDeparture: 10})
	if err != nil {
		t.Fatalf("Demand: %v", err)
	}
	if !obs.Fallback {
		t.Errorf("expected fallback observation")
	}
}

func TestRandomFactory_PerTrialSeeds(t *testing.T) {
	factory, err := NewRandomFactory(domain.DemandRangeElastic, 100)
	if err != nil {
		t.Fatalf("NewRandomFactory: %v", err)
	}
	first, _ := factory(0)
	again, _ := factory(0)
	other, _ := factory(1)

	a, _ := first.Demand(Query{})
	b, _ := again.Demand(Query{})
	c, _ := other.Demand(Query{})
	if a.Level != b.Level {
		t.Errorf("same trial index must reproduce: %v != %v", a.Level, b.Level)
	}
	if a.Level == c.Level {
		t.Errorf("different trial indices should draw independently")
	}
}
