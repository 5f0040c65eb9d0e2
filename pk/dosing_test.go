package pk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedEveryNDays(t *testing.T) {
	// 250 mg IM every 3 days for 2 weeks: days 0, 3, 6, 9, 12.
	reg, err := FixedEveryNDays("testo", RouteIM, 250, 3, 2, 0)
	require.NoError(t, err)
	require.Len(t, reg.Doses, 5)

	wantStarts := []float64{0, 72, 144, 216, 288}
	for i, d := range reg.Doses {
		assert.Equal(t, wantStarts[i], d.StartH)
		assert.Equal(t, 250.0, d.AmountMg)
		assert.Equal(t, RouteIM, d.Route)
	}
}

func TestFixedEveryNDays_Offset(t *testing.T) {
	reg, err := FixedEveryNDays("testo", RouteSC, 100, 7, 1, 9)
	require.NoError(t, err)
	require.Len(t, reg.Doses, 2)
	assert.Equal(t, 9.0, reg.Doses[0].StartH)
	assert.Equal(t, 177.0, reg.Doses[1].StartH)
}

func TestFixedEveryNDays_BadCounts(t *testing.T) {
	_, err := FixedEveryNDays("x", RouteIM, 250, 0, 8, 0)
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = FixedEveryNDays("x", RouteIM, 250, 3, -1, 0)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestExplicitSchedule_SortsByStart(t *testing.T) {
	reg, err := ExplicitSchedule("testo", RouteIM, []ScheduleEntry{
		{StartH: 144, AmountMg: 250},
		{StartH: 0, AmountMg: 250},
		{StartH: 72, AmountMg: 250},
	})
	require.NoError(t, err)
	require.Len(t, reg.Doses, 3)
	assert.Equal(t, []float64{0, 72, 144}, []float64{reg.Doses[0].StartH, reg.Doses[1].StartH, reg.Doses[2].StartH})
}

func TestInfusion(t *testing.T) {
	reg, err := Infusion("abx", 1000, 0, 2)
	require.NoError(t, err)
	require.Len(t, reg.Doses, 1)
	assert.Equal(t, RouteIVInfusion, reg.Doses[0].Route)
	assert.Equal(t, 2.0, reg.Doses[0].DurationH)
}

// Combining two single-compound regimens and splitting the result must
// reproduce each original regimen's dose set exactly.
func TestCombineSplit_RoundTrip(t *testing.T) {
	regA, err := FixedEveryNDays("testosterone", RouteIM, 250, 3, 8, 0)
	require.NoError(t, err)
	regB, err := FixedEveryNDays("nandrolone", RouteIM, 200, 7, 8, 0)
	require.NoError(t, err)

	combined := Combine(regA, regB)
	assert.Len(t, combined.Doses, len(regA.Doses)+len(regB.Doses))

	parts := SplitByCompound(combined)
	require.Len(t, parts, 2)
	assert.ElementsMatch(t, regA.Doses, parts["testosterone"].Doses)
	assert.ElementsMatch(t, regB.Doses, parts["nandrolone"].Doses)
}

func TestCombine_SortedByStart(t *testing.T) {
	late, _ := SingleDose("x", RouteIM, 100, 48, 0)
	early, _ := SingleDose("x", RouteIVBolus, 200, 0, 0)
	combined := Combine(late, early)
	require.Len(t, combined.Doses, 2)
	if combined.Doses[0].StartH > combined.Doses[1].StartH {
		t.Errorf("Combine not sorted: starts %v, %v", combined.Doses[0].StartH, combined.Doses[1].StartH)
	}
}
