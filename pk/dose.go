package pk

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed caller input: bad dose fields, non-positive
// drug parameters, missing compound parameters. Raised before any numerical
// work begins.
var ErrValidation = errors.New("invalid input")

// ErrNumerical marks an integration failure (step underflow or exhausted
// step budget). A failed segment invalidates the whole simulation call; no
// partial output is returned.
var ErrNumerical = errors.New("integration failed")

// Route identifies how a dose is administered. All times are in hours.
type Route string

const (
	RouteIVBolus    Route = "iv_bolus"    // instantaneous intravenous
	RouteIVInfusion Route = "iv_infusion" // continuous zero-order input
	RouteIM         Route = "im"          // intramuscular
	RouteSC         Route = "sc"          // subcutaneous
	RoutePO         Route = "po"          // oral
)

// ValidRoutes is the set of recognized administration routes.
// Shared by Dose.Validate and the scenario loader.
var ValidRoutes = map[Route]bool{
	RouteIVBolus:    true,
	RouteIVInfusion: true,
	RouteIM:         true,
	RouteSC:         true,
	RoutePO:         true,
}

// Extravascular reports whether the route deposits drug into the absorption
// depot rather than directly into the central compartment.
func (r Route) Extravascular() bool {
	return r == RouteIM || r == RouteSC || r == RoutePO
}

// Dose is a single administration of a compound. Immutable once built via
// NewDose; DurationH is strictly positive exactly when Route is iv_infusion.
type Dose struct {
	Compound  string  // identifier of the compound this dose belongs to
	Route     Route   // how the dose is given
	AmountMg  float64 // dose size in milligrams (> 0)
	StartH    float64 // start time in hours from time 0 (>= 0)
	DurationH float64 // infusion length in hours (0 for all other routes)
}

// NewDose builds a validated Dose. Violating the route/duration invariant,
// a non-positive amount, or a negative start time is rejected here, before
// any simulation can see the dose.
func NewDose(compound string, route Route, amountMg, startH, durationH float64) (Dose, error) {
	d := Dose{Compound: compound, Route: route, AmountMg: amountMg, StartH: startH, DurationH: durationH}
	if err := d.Validate(); err != nil {
		return Dose{}, err
	}
	return d, nil
}

// Validate checks the Dose field invariants.
func (d Dose) Validate() error {
	if !ValidRoutes[d.Route] {
		return fmt.Errorf("%w: unknown route %q", ErrValidation, string(d.Route))
	}
	if !(d.AmountMg > 0) {
		return fmt.Errorf("%w: amount_mg must be > 0, got %v", ErrValidation, d.AmountMg)
	}
	if d.StartH < 0 {
		return fmt.Errorf("%w: start_h must be >= 0, got %v", ErrValidation, d.StartH)
	}
	if d.Route == RouteIVInfusion {
		if !(d.DurationH > 0) {
			return fmt.Errorf("%w: duration_h must be > 0 for route %q, got %v", ErrValidation, string(d.Route), d.DurationH)
		}
	} else if d.DurationH != 0 {
		return fmt.Errorf("%w: duration_h must be 0 for route %q, got %v", ErrValidation, string(d.Route), d.DurationH)
	}
	return nil
}

// EndH is the time the dose stops contributing input (equals StartH for
// non-infusion routes).
func (d Dose) EndH() float64 {
	return d.StartH + d.DurationH
}

// Regimen is an unordered collection of doses, possibly spanning multiple
// compounds. Multiple doses may share a start time.
type Regimen struct {
	Doses []Dose
}

// Validate checks every dose in the regimen.
func (r Regimen) Validate() error {
	for i, d := range r.Doses {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("dose %d: %w", i, err)
		}
	}
	return nil
}

// Drug holds the one-compartment parameters for a single compound.
type Drug struct {
	Compound       string  // compound identifier the parameters apply to
	ClearanceLPerH float64 // CL, liters per hour (> 0)
	VolumeL        float64 // V, central volume of distribution in liters (> 0)
	KaPerH         float64 // ka, first-order absorption rate constant (> 0)
}

// Validate checks that all PK parameters are strictly positive.
func (d Drug) Validate() error {
	if !(d.ClearanceLPerH > 0) {
		return fmt.Errorf("%w: clearance must be > 0, got %v", ErrValidation, d.ClearanceLPerH)
	}
	if !(d.VolumeL > 0) {
		return fmt.Errorf("%w: volume must be > 0, got %v", ErrValidation, d.VolumeL)
	}
	if !(d.KaPerH > 0) {
		return fmt.Errorf("%w: ka must be > 0, got %v", ErrValidation, d.KaPerH)
	}
	return nil
}
