package pk

import (
	"fmt"
	"math"
)

// Adaptive Dormand-Prince 5(4) integrator. The fifth-order solution is
// propagated; the embedded fourth-order solution drives step-size control.
// Steps are clamped so the integrator lands exactly on every requested
// evaluation time, which is how the segment loop samples the output grid
// without dense-output interpolation.

// Dormand-Prince tableau.
const (
	dpC2, dpC3, dpC4, dpC5 = 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0

	dpA21 = 1.0 / 5.0
	dpA31 = 3.0 / 40.0
	dpA32 = 9.0 / 40.0
	dpA41 = 44.0 / 45.0
	dpA42 = -56.0 / 15.0
	dpA43 = 32.0 / 9.0
	dpA51 = 19372.0 / 6561.0
	dpA52 = -25360.0 / 2187.0
	dpA53 = 64448.0 / 6561.0
	dpA54 = -212.0 / 729.0
	dpA61 = 9017.0 / 3168.0
	dpA62 = -355.0 / 33.0
	dpA63 = 46732.0 / 5247.0
	dpA64 = 49.0 / 176.0
	dpA65 = -5103.0 / 18656.0

	// Fifth-order weights (also the a7j row).
	dpB1 = 35.0 / 384.0
	dpB3 = 500.0 / 1113.0
	dpB4 = 125.0 / 192.0
	dpB5 = -2187.0 / 6784.0
	dpB6 = 11.0 / 84.0

	// Error weights: fifth-order minus embedded fourth-order.
	dpE1 = 71.0 / 57600.0
	dpE3 = -71.0 / 16695.0
	dpE4 = 71.0 / 1920.0
	dpE5 = -17253.0 / 339200.0
	dpE6 = 22.0 / 525.0
	dpE7 = -1.0 / 40.0
)

// solverOpts holds the integrator's tolerance and budget settings.
type solverOpts struct {
	RelTol   float64 // relative error tolerance per step
	AbsTol   float64 // absolute error tolerance per step
	MaxSteps int     // step-attempt budget per segment
}

func defaultSolverOpts() solverOpts {
	return solverOpts{RelTol: 1e-6, AbsTol: 1e-9, MaxSteps: 100000}
}

// timeTiny is the slack used when deciding the integrator has reached a
// target time; intervals shorter than this are treated as already reached.
const timeTiny = 1e-12

// integrateSegment advances y from `from` to `to`, calling record(t, y) at
// every time in evals. evals must be sorted ascending and lie within
// [from, to]; an eval equal to `from` is recorded immediately from the
// initial state. Returns the state at `to`, or ErrNumerical when the step
// size underflows or the step budget is exhausted.
func integrateSegment(f derivFunc, from, to float64, y0 State, evals []float64, record func(t float64, y State), opts solverOpts) (State, error) {
	t, y := from, y0
	ei := 0
	for ei < len(evals) && evals[ei] <= from+timeTiny {
		record(evals[ei], y)
		ei++
	}
	if to-from <= timeTiny {
		return y, nil
	}

	h := math.Min(to-from, 1.0)
	minStep := math.Max((to-from)*1e-14, 1e-14)
	steps := 0

	for t < to-timeTiny {
		// Next time we must land on exactly: the next eval point, else the
		// segment end.
		next := to
		if ei < len(evals) && evals[ei] < next {
			next = evals[ei]
		}
		if h > next-t {
			h = next - t
		}

		k1 := f(t, y)
		k2 := f(t+dpC2*h, y.addScaled(h*dpA21, k1))
		k3 := f(t+dpC3*h, State{
			DepotMg:   y.DepotMg + h*(dpA31*k1.DepotMg+dpA32*k2.DepotMg),
			CentralMg: y.CentralMg + h*(dpA31*k1.CentralMg+dpA32*k2.CentralMg),
		})
		k4 := f(t+dpC4*h, State{
			DepotMg:   y.DepotMg + h*(dpA41*k1.DepotMg+dpA42*k2.DepotMg+dpA43*k3.DepotMg),
			CentralMg: y.CentralMg + h*(dpA41*k1.CentralMg+dpA42*k2.CentralMg+dpA43*k3.CentralMg),
		})
		k5 := f(t+dpC5*h, State{
			DepotMg:   y.DepotMg + h*(dpA51*k1.DepotMg+dpA52*k2.DepotMg+dpA53*k3.DepotMg+dpA54*k4.DepotMg),
			CentralMg: y.CentralMg + h*(dpA51*k1.CentralMg+dpA52*k2.CentralMg+dpA53*k3.CentralMg+dpA54*k4.CentralMg),
		})
		k6 := f(t+h, State{
			DepotMg:   y.DepotMg + h*(dpA61*k1.DepotMg+dpA62*k2.DepotMg+dpA63*k3.DepotMg+dpA64*k4.DepotMg+dpA65*k5.DepotMg),
			CentralMg: y.CentralMg + h*(dpA61*k1.CentralMg+dpA62*k2.CentralMg+dpA63*k3.CentralMg+dpA64*k4.CentralMg+dpA65*k5.CentralMg),
		})
		yNew := State{
			DepotMg:   y.DepotMg + h*(dpB1*k1.DepotMg+dpB3*k3.DepotMg+dpB4*k4.DepotMg+dpB5*k5.DepotMg+dpB6*k6.DepotMg),
			CentralMg: y.CentralMg + h*(dpB1*k1.CentralMg+dpB3*k3.CentralMg+dpB4*k4.CentralMg+dpB5*k5.CentralMg+dpB6*k6.CentralMg),
		}
		k7 := f(t+h, yNew)

		errDepot := h * (dpE1*k1.DepotMg + dpE3*k3.DepotMg + dpE4*k4.DepotMg + dpE5*k5.DepotMg + dpE6*k6.DepotMg + dpE7*k7.DepotMg)
		errCentral := h * (dpE1*k1.CentralMg + dpE3*k3.CentralMg + dpE4*k4.CentralMg + dpE5*k5.CentralMg + dpE6*k6.CentralMg + dpE7*k7.CentralMg)
		errNorm := stepErrorNorm(y, yNew, errDepot, errCentral, opts)

		if errNorm <= 1 {
			t += h
			y = yNew
			if t >= next-timeTiny {
				t = next // kill accumulated rounding at landing points
				if ei < len(evals) && next == evals[ei] {
					record(evals[ei], y)
					ei++
				}
			}
			if t >= to-timeTiny {
				break
			}
		}

		// Standard fifth-order controller with safety factor and growth clamp.
		factor := 5.0
		if errNorm > 0 {
			factor = 0.9 * math.Pow(errNorm, -0.2)
			factor = math.Min(5.0, math.Max(0.2, factor))
		}
		h *= factor

		if h < minStep {
			return State{}, fmt.Errorf("%w: step size underflow at t=%v", ErrNumerical, t)
		}
		steps++
		if steps > opts.MaxSteps {
			return State{}, fmt.Errorf("%w: exceeded %d steps in segment [%v, %v]", ErrNumerical, opts.MaxSteps, from, to)
		}
	}
	return y, nil
}

// stepErrorNorm is the RMS of the per-component error scaled by the mixed
// absolute/relative tolerance; a value <= 1 accepts the step.
func stepErrorNorm(y, yNew State, errDepot, errCentral float64, opts solverOpts) float64 {
	scaleDepot := opts.AbsTol + opts.RelTol*math.Max(math.Abs(y.DepotMg), math.Abs(yNew.DepotMg))
	scaleCentral := opts.AbsTol + opts.RelTol*math.Max(math.Abs(y.CentralMg), math.Abs(yNew.CentralMg))
	ed := errDepot / scaleDepot
	ec := errCentral / scaleCentral
	return math.Sqrt((ed*ed + ec*ec) / 2)
}
