package pk

// State is the drug mass in each compartment, in milligrams. A named
// two-field record rather than a positional vector so model variants cannot
// confuse the components.
type State struct {
	DepotMg   float64 // absorption depot (gut / injection site)
	CentralMg float64 // central compartment
}

// addScaled returns s + h*d, the axpy step the integrator builds stages from.
func (s State) addScaled(h float64, d State) State {
	return State{
		DepotMg:   s.DepotMg + h*d.DepotMg,
		CentralMg: s.CentralMg + h*d.CentralMg,
	}
}

// derivFunc is the ODE right-hand side dY/dt = f(t, Y).
type derivFunc func(t float64, y State) State

// infusionRate is the total zero-order input rate at time t: each
// iv_infusion dose contributes amount/duration while t is inside
// [start, start+duration].
func infusionRate(doses []Dose, t float64) float64 {
	rate := 0.0
	for _, d := range doses {
		if d.Route == RouteIVInfusion && d.StartH <= t && t <= d.EndH() {
			rate += d.AmountMg / d.DurationH
		}
	}
	return rate
}

// oneCompartment returns the right-hand side for a one-compartment model
// with first-order absorption and elimination:
//
//	depot'   = -ka * depot
//	central' =  ka * depot - (CL/V) * central + sum of active infusion rates
//
// This is the reference form of the model, with the infusion window
// evaluated on every call; the segment loop runs the equivalent segmentRHS
// instead, which freezes the rate per segment. The returned function is
// stateless and safe for the adaptive stepper to evaluate at non-monotonic
// times.
func oneCompartment(drug Drug, doses []Dose) derivFunc {
	return func(t float64, y State) State {
		return compartmentDerivs(drug, y, infusionRate(doses, t))
	}
}

// segmentRHS returns the right-hand side with the infusion rate frozen to
// its value on the open segment (lo, hi). Boundaries are built so the rate
// is constant there; freezing it keeps Runge-Kutta stages at the segment's
// endpoints from sampling the neighboring segment's rate.
func segmentRHS(drug Drug, doses []Dose, lo, hi float64) derivFunc {
	rate := infusionRate(doses, 0.5*(lo+hi))
	return func(t float64, y State) State {
		return compartmentDerivs(drug, y, rate)
	}
}

func compartmentDerivs(drug Drug, y State, rate float64) State {
	ka := drug.KaPerH
	kel := drug.ClearanceLPerH / drug.VolumeL
	return State{
		DepotMg:   -ka * y.DepotMg,
		CentralMg: ka*y.DepotMg - kel*y.CentralMg + rate,
	}
}
