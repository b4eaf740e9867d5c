// Package dataset loads the historical flight table and exposes read-only lookups.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names in the historical CSV.
const (
	ColumnFlightID   = "Flight ID"
	ColumnDaysBefore = "Days Before Departure"
	ColumnDemand     = "Demand"
	ColumnPrice      = "Price"
	ColumnClass      = "Class"
)

// Errors returned by loading functions.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyHeader   = errors.New("csv has no header row")
	ErrInvalidValue  = errors.New("invalid value")
)

// Row is one historical observation.
type Row struct {
	FlightID            int64
	DaysBeforeDeparture int
	Demand              float64
	Price               *float64 // nil when the cell is empty
	Class               string
}

// Table is the full loaded dataset. It is never mutated after load.
type Table struct {
	rows []Row
}

// NewTable wraps rows in a Table. The slice is copied.
func NewTable(rows []Row) *Table {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// LoadCSV reads the dataset at path.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return t, nil
}

// ParseCSV reads a dataset from r. Columns may appear in any order; extra columns are ignored.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		row, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return &Table{rows: rows}, nil
}

type columnIndex struct {
	flightID, daysBefore, demand, price, class int
}

func resolveColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	lookup := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	var cols columnIndex
	var err error
	if cols.flightID, err = lookup(ColumnFlightID); err != nil {
		return cols, err
	}
	if cols.daysBefore, err = lookup(ColumnDaysBefore); err != nil {
		return cols, err
	}
	if cols.demand, err = lookup(ColumnDemand); err != nil {
		return cols, err
	}
	if cols.price, err = lookup(ColumnPrice); err != nil {
		return cols, err
	}
	if cols.class, err = lookup(ColumnClass); err != nil {
		return cols, err
	}
	return cols, nil
}

func parseRow(record []string, cols columnIndex) (Row, error) {
	field := func(i int) string {
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	flightID, err := strconv.ParseInt(field(cols.flightID), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse %s: %w", ColumnFlightID, err)
	}
	daysBefore, err := parseDays(field(cols.daysBefore))
	if err != nil {
		return Row{}, fmt.Errorf("parse %s: %w", ColumnDaysBefore, err)
	}
	demand, err := parseQuantity(field(cols.demand))
	if err != nil {
		return Row{}, fmt.Errorf("parse %s: %w", ColumnDemand, err)
	}

	row := Row{
		FlightID:            flightID,
		DaysBeforeDeparture: daysBefore,
		Demand:              demand,
		Class:               field(cols.class),
	}

	if raw := field(cols.price); raw != "" {
		price, err := parseQuantity(raw)
		if err != nil {
			return Row{}, fmt.Errorf("parse %s: %w", ColumnPrice, err)
		}
		row.Price = &price
	}

	return row, nil
}

// parseQuantity parses a finite, non-negative float.
func parseQuantity(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	return f, nil
}

// parseDays accepts non-negative integral values, also written as floats ("12.0").
func parseDays(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative days %q", ErrInvalidValue, s)
		}
		return n, nil
	}
	f, err := parseQuantity(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: non-integral days %q", ErrInvalidValue, s)
	}
	return int(f), nil
}
