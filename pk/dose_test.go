package pk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDose_Valid(t *testing.T) {
	d, err := NewDose("testo", RouteIM, 250, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Dose{Compound: "testo", Route: RouteIM, AmountMg: 250}, d)

	inf, err := NewDose("testo", RouteIVInfusion, 1000, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 6.0, inf.EndH())
}

func TestNewDose_RouteDurationInvariant(t *testing.T) {
	// Non-zero duration on a non-infusion route is rejected at construction.
	_, err := NewDose("testo", RouteIM, 250, 0, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	// Zero or negative duration on an infusion route is rejected too.
	_, err = NewDose("testo", RouteIVInfusion, 250, 0, 0)
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = NewDose("testo", RouteIVInfusion, 250, 0, -1)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewDose_BadFields(t *testing.T) {
	cases := []struct {
		name     string
		route    Route
		amount   float64
		start    float64
		duration float64
	}{
		{"zero amount", RouteIM, 0, 0, 0},
		{"negative amount", RouteIM, -5, 0, 0},
		{"negative start", RouteIM, 250, -1, 0},
		{"unknown route", Route("inhaled"), 250, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDose("x", tc.route, tc.amount, tc.start, tc.duration)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("NewDose(%s) error = %v, want ErrValidation", tc.name, err)
			}
		})
	}
}

func TestDrug_Validate(t *testing.T) {
	good := Drug{Compound: "testo", ClearanceLPerH: 12, VolumeL: 300, KaPerH: 0.1}
	assert.NoError(t, good.Validate())

	for _, bad := range []Drug{
		{Compound: "x", ClearanceLPerH: 0, VolumeL: 300, KaPerH: 0.1},
		{Compound: "x", ClearanceLPerH: 12, VolumeL: -1, KaPerH: 0.1},
		{Compound: "x", ClearanceLPerH: 12, VolumeL: 300, KaPerH: 0},
	} {
		err := bad.Validate()
		assert.True(t, errors.Is(err, ErrValidation), "Validate() = %v, want ErrValidation", err)
	}
}

func TestRegimen_Validate(t *testing.T) {
	ok := Regimen{Doses: []Dose{{Compound: "x", Route: RouteIM, AmountMg: 10}}}
	assert.NoError(t, ok.Validate())

	bad := Regimen{Doses: []Dose{{Compound: "x", Route: RouteIM, AmountMg: 10, DurationH: 3}}}
	err := bad.Validate()
	assert.True(t, errors.Is(err, ErrValidation))
}
