package pk

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// DoseTimeTol is the absolute tolerance, in hours, used to match dose times
// to segment boundaries and to deduplicate boundaries. Doses within this
// tolerance of a boundary are applied at that boundary.
const DoseTimeTol = 1e-9

// Profile is one compound's sampled concentration-time curve. Times are
// strictly increasing and start one sampling step after time zero; values
// are non-negative. Both slices always have equal length.
type Profile struct {
	TimesH      []float64 // sample times, hours
	ConcsMgPerL []float64 // concentrations, mg/L
}

// Len returns the number of recorded samples.
func (p Profile) Len() int {
	return len(p.TimesH)
}

// Simulate produces the concentration-time profile for one compound. The
// horizon is split into segments at every dose start and infusion end so
// the right-hand side is smooth within each segment; bolus doses are
// applied as instantaneous state jumps at segment boundaries (the boundary
// sample, if any, is recorded first, then the jump seeds the next segment).
//
// The output grid is stepH, 2*stepH, ... up to the horizon; it never
// includes t=0. ctx is checked between segments, so a long run cancels at
// boundary granularity.
func Simulate(ctx context.Context, drug Drug, regimen Regimen, horizonH, stepH float64) (Profile, error) {
	if err := drug.Validate(); err != nil {
		return Profile{}, err
	}
	if err := regimen.Validate(); err != nil {
		return Profile{}, err
	}
	if !(horizonH > 0) {
		return Profile{}, fmt.Errorf("%w: horizon_h must be > 0, got %v", ErrValidation, horizonH)
	}
	if !(stepH > 0) {
		return Profile{}, fmt.Errorf("%w: step_h must be > 0, got %v", ErrValidation, stepH)
	}

	grid := sampleGrid(horizonH, stepH)
	boundaries := segmentBoundaries(regimen.Doses, horizonH)
	opts := defaultSolverOpts()

	// Doses at t=0 are instantaneous jumps applied before any integration.
	y := applyBoluses(State{}, regimen.Doses, 0)

	timesOut := make([]float64, 0, len(grid))
	massOut := make([]float64, 0, len(grid))
	record := func(t float64, y State) {
		timesOut = append(timesOut, t)
		massOut = append(massOut, y.CentralMg)
	}

	prev := boundaries[0]
	for _, curr := range boundaries[1:] {
		if curr-prev <= DoseTimeTol {
			continue // coincident boundaries, nothing to integrate
		}
		if err := ctx.Err(); err != nil {
			return Profile{}, err
		}

		// Until the first sample lands, a grid point on the segment's lower
		// edge is still fair game; afterwards the lower edge belongs to the
		// previous segment.
		evals := gridWithin(grid, prev, curr, len(timesOut) == 0)
		logrus.Debugf("compound %q: segment [%v, %v] with %d sample points", drug.Compound, prev, curr, len(evals))

		yEnd, err := integrateSegment(segmentRHS(drug, regimen.Doses, prev, curr), prev, curr, y, evals, record, opts)
		if err != nil {
			return Profile{}, fmt.Errorf("compound %q: %w", drug.Compound, err)
		}
		y = applyBoluses(yEnd, regimen.Doses, curr)
		prev = curr
	}

	concs := make([]float64, len(massOut))
	copy(concs, massOut)
	floats.Scale(1/drug.VolumeL, concs)
	for i, c := range concs {
		if c < 0 {
			concs[i] = 0 // integrator noise, not a modeling fault
		}
	}
	return Profile{TimesH: timesOut, ConcsMgPerL: concs}, nil
}

// SimulateAll partitions a possibly multi-compound regimen by compound
// identifier and runs one independent solve per compound, concurrently.
// Every compound appearing in the regimen must have parameters in drugs;
// a missing entry is a configuration error reported before any solve runs.
func SimulateAll(ctx context.Context, drugs map[string]Drug, regimen Regimen, horizonH, stepH float64) (map[string]Profile, error) {
	perCompound := SplitByCompound(regimen)

	var missing []string
	for compound := range perCompound {
		if _, ok := drugs[compound]; !ok {
			missing = append(missing, compound)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: missing drug parameters for compound(s) %q", ErrValidation, missing)
	}

	results := make(map[string]Profile, len(perCompound))
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for compound, sub := range perCompound {
		wg.Add(1)
		go func(compound string, sub Regimen) {
			defer wg.Done()
			p, err := Simulate(ctx, drugs[compound], sub, horizonH, stepH)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("compound %q: %w", compound, err)
				}
				return
			}
			results[compound] = p
		}(compound, sub)
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// sampleGrid returns stepH, 2*stepH, ..., n*stepH with n*stepH <= horizonH
// (within DoseTimeTol slack so an exact multiple is kept).
func sampleGrid(horizonH, stepH float64) []float64 {
	n := int(math.Floor(horizonH/stepH + DoseTimeTol))
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = stepH * float64(i+1)
	}
	return grid
}

// segmentBoundaries returns the sorted, deduplicated set of times where the
// right-hand side changes: 0, the horizon, every in-range dose start, and
// every in-range infusion end. Between consecutive boundaries the RHS is
// smooth.
func segmentBoundaries(doses []Dose, horizonH float64) []float64 {
	b := []float64{0, horizonH}
	for _, d := range doses {
		if d.StartH >= 0 && d.StartH <= horizonH {
			b = append(b, d.StartH)
		}
		if d.Route == RouteIVInfusion {
			if end := d.EndH(); end >= 0 && end <= horizonH {
				b = append(b, end)
			}
		}
	}
	sort.Float64s(b)
	out := b[:1]
	for _, t := range b[1:] {
		if t-out[len(out)-1] > DoseTimeTol {
			out = append(out, t)
		}
	}
	return out
}

// gridWithin selects the grid points falling in (lo, hi], or [lo, hi] when
// the lower edge is still inclusive (no samples recorded yet).
func gridWithin(grid []float64, lo, hi float64, inclusiveLo bool) []float64 {
	var out []float64
	for _, g := range grid {
		if g > hi {
			break
		}
		if g > lo || (inclusiveLo && g >= lo) {
			out = append(out, g)
		}
	}
	return out
}

// applyBoluses adds every bolus-type dose scheduled at time t (within
// DoseTimeTol) to the state: extravascular routes fill the depot, IV bolus
// the central compartment. Infusions are continuous inputs handled by the
// right-hand side, never jumps. Addition is commutative, so dose order at
// a shared boundary does not matter.
func applyBoluses(y State, doses []Dose, t float64) State {
	for _, d := range doses {
		if math.Abs(d.StartH-t) > DoseTimeTol {
			continue
		}
		switch {
		case d.Route.Extravascular():
			y.DepotMg += d.AmountMg
		case d.Route == RouteIVBolus:
			y.CentralMg += d.AmountMg
		}
	}
	return y
}
