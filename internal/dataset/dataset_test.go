package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Flight ID,Days Before Departure,Demand,Price,Class,Route
2,3,31.5,950.0,Business,JFK-LHR
1,2,28,910,Business,JFK-LHR
1,1,33,,Business,JFK-LHR
1,2,99,999,Business,JFK-LHR
1,5,140,210,Economy,JFK-LHR
3,4.0,22,870,Business,JFK-CDG
`

func TestParseCSV_FilterClass(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())

	view := table.FilterClass("Business")
	assert.Equal(t, "Business", view.Class())
	assert.Equal(t, 5, view.Len())
	assert.Equal(t, 4, view.MaxDays())
	assert.Equal(t, []int64{1, 2, 3}, view.AvailableFlightIDs())

	fd, ok := view.GetFlightData(1, 2)
	require.True(t, ok)
	assert.InDelta(t, 28.0, fd.Demand, 1e-9)
	require.NotNil(t, fd.Price)
	assert.InDelta(t, 910.0, *fd.Price, 1e-9)

	fd, ok = view.GetFlightData(1, 1)
	require.True(t, ok)
	assert.Nil(t, fd.Price)

	_, ok = view.GetFlightData(1, 5)
	assert.False(t, ok, "economy row must not leak into business view")

	economy := table.FilterClass("Economy")
	assert.Equal(t, 1, economy.Len())
	assert.Equal(t, 5, economy.MaxDays())

	// Filtering produces independent views; the table is unchanged.
	assert.Equal(t, 6, table.Len())
}

func TestView_ReturnsCopies(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	view := table.FilterClass("Business")

	ids := view.AvailableFlightIDs()
	ids[0] = 42
	assert.Equal(t, int64(1), view.AvailableFlightIDs()[0])

	fd, _ := view.GetFlightData(2, 3)
	*fd.Price = 1
	again, _ := view.GetFlightData(2, 3)
	assert.InDelta(t, 950.0, *again.Price, 1e-9)
}

func TestNilView(t *testing.T) {
	var v *View
	_, ok := v.GetFlightData(1, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, v.MaxDays())
	assert.Equal(t, 0, v.Len())
	assert.Nil(t, v.AvailableFlightIDs())
}

func TestParseCSV_MissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Flight ID,Demand,Price,Class\n1,2,3,Business\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn), "got %v", err)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyHeader)
}

func TestParseCSV_BadNumber(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Flight ID,Days Before Departure,Demand,Price,Class\nx,1,2,3,Business\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseCSV_RejectsInvalidValues(t *testing.T) {
	const header = "Flight ID,Days Before Departure,Demand,Price,Class\n"
	tests := []struct {
		name string
		row  string
	}{
		{"nan demand", "1,2,NaN,900,Business\n"},
		{"inf demand", "1,2,+Inf,900,Business\n"},
		{"negative demand", "1,2,-3,900,Business\n"},
		{"nan price", "1,2,30,nan,Business\n"},
		{"inf price", "1,2,30,-Inf,Business\n"},
		{"negative days", "1,-2,30,900,Business\n"},
		{"negative float days", "1,-2.0,30,900,Business\n"},
		{"non-integral days", "1,2.5,30,900,Business\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(header + "1,1,30,900,Business\n" + tt.row))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidValue)
			assert.Contains(t, err.Error(), "line 3")
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 6, table.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
