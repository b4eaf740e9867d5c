package dataset

import "sort"

// FlightData is the historical observation for one (flight, day).
type FlightData struct {
	Demand float64
	Price  *float64
}

type flightDayKey struct {
	flightID   int64
	daysBefore int
}

// View is an immutable class-filtered index over a Table.
// Safe for concurrent reads. A nil *View behaves as an empty view.
type View struct {
	class     string
	index     map[flightDayKey]FlightData
	maxDays   int
	flightIDs []int64
	rows      int
}

// FilterClass returns a new view restricted to rows of class.
// The receiver is left untouched.
func (t *Table) FilterClass(class string) *View {
	v := &View{
		class: class,
		index: make(map[flightDayKey]FlightData),
	}

	seen := make(map[int64]struct{})
	for _, r := range t.rows {
		if r.Class != class {
			continue
		}
		v.rows++

		key := flightDayKey{flightID: r.FlightID, daysBefore: r.DaysBeforeDeparture}
		// First matching row wins on duplicate (flight, day) keys.
		if _, exists := v.index[key]; !exists {
			fd := FlightData{Demand: r.Demand}
			if r.Price != nil {
				p := *r.Price
				fd.Price = &p
			}
			v.index[key] = fd
		}

		if r.DaysBeforeDeparture > v.maxDays {
			v.maxDays = r.DaysBeforeDeparture
		}
		if _, ok := seen[r.FlightID]; !ok {
			seen[r.FlightID] = struct{}{}
			v.flightIDs = append(v.flightIDs, r.FlightID)
		}
	}

	sort.Slice(v.flightIDs, func(i, j int) bool { return v.flightIDs[i] < v.flightIDs[j] })
	return v
}

// Class returns the class filter the view was built with.
func (v *View) Class() string {
	if v == nil {
		return ""
	}
	return v.class
}

// Len returns the number of rows in the view.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return v.rows
}

// GetFlightData returns the observation for (flightID, daysBefore).
// Returns false when no row matches.
func (v *View) GetFlightData(flightID int64, daysBefore int) (FlightData, bool) {
	if v == nil {
		return FlightData{}, false
	}
	fd, ok := v.index[flightDayKey{flightID: flightID, daysBefore: daysBefore}]
	if !ok {
		return FlightData{}, false
	}
	if fd.Price != nil {
		p := *fd.Price
		fd.Price = &p
	}
	return fd, true
}

// MaxDays returns the largest Days Before Departure in the view, 0 if empty.
func (v *View) MaxDays() int {
	if v == nil {
		return 0
	}
	return v.maxDays
}

// AvailableFlightIDs returns distinct flight IDs in ascending order.
func (v *View) AvailableFlightIDs() []int64 {
	if v == nil {
		return nil
	}
	out := make([]int64, len(v.flightIDs))
	copy(out, v.flightIDs)
	return out
}
