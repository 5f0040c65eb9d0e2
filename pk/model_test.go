package pk

import (
	"math"
	"testing"
)

func TestOneCompartment_BaseRates(t *testing.T) {
	drug := Drug{Compound: "x", ClearanceLPerH: 12, VolumeL: 300, KaPerH: 0.1}
	f := oneCompartment(drug, nil)

	y := State{DepotMg: 100, CentralMg: 50}
	d := f(0, y)

	wantDepot := -0.1 * 100
	wantCentral := 0.1*100 - (12.0/300.0)*50
	if math.Abs(d.DepotMg-wantDepot) > 1e-12 {
		t.Errorf("depot rate = %v, want %v", d.DepotMg, wantDepot)
	}
	if math.Abs(d.CentralMg-wantCentral) > 1e-12 {
		t.Errorf("central rate = %v, want %v", d.CentralMg, wantCentral)
	}
}

func TestOneCompartment_InfusionWindow(t *testing.T) {
	drug := Drug{Compound: "x", ClearanceLPerH: 10, VolumeL: 50, KaPerH: 1}
	doses := []Dose{{Compound: "x", Route: RouteIVInfusion, AmountMg: 600, StartH: 4, DurationH: 2}}
	f := oneCompartment(drug, doses)

	// 600 mg over 2 h is a 300 mg/h zero-order input inside [4, 6].
	if got := f(5, State{}).CentralMg; math.Abs(got-300) > 1e-12 {
		t.Errorf("central rate during infusion = %v, want 300", got)
	}
	for _, tm := range []float64{0, 3.999, 6.001, 48} {
		if got := f(tm, State{}).CentralMg; got != 0 {
			t.Errorf("central rate at t=%v = %v, want 0 (infusion inactive)", tm, got)
		}
	}

	// Overlapping infusions accumulate.
	doses = append(doses, Dose{Compound: "x", Route: RouteIVInfusion, AmountMg: 100, StartH: 5, DurationH: 1})
	if got := infusionRate(doses, 5.5); math.Abs(got-400) > 1e-12 {
		t.Errorf("overlapping infusion rate = %v, want 400", got)
	}
}

// The right-hand side must be a pure function: repeated and out-of-order
// evaluation cannot change results.
func TestOneCompartment_Stateless(t *testing.T) {
	drug := Drug{Compound: "x", ClearanceLPerH: 10, VolumeL: 50, KaPerH: 1}
	doses := []Dose{{Compound: "x", Route: RouteIVInfusion, AmountMg: 600, StartH: 4, DurationH: 2}}
	f := oneCompartment(drug, doses)

	y := State{DepotMg: 7, CentralMg: 3}
	first := f(5, y)
	f(100, y) // evaluate elsewhere, non-monotonic
	second := f(5, y)
	if first != second {
		t.Errorf("rhs not stateless: %+v != %+v", first, second)
	}
}
