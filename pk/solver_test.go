package pk

import (
	"errors"
	"math"
	"testing"
)

// Pure exponential decay has the closed form y(t) = y0 * exp(-k t); the
// adaptive stepper must reproduce it well inside its tolerance.
func TestIntegrate_ExponentialDecay(t *testing.T) {
	const k = 0.25
	f := func(tm float64, y State) State {
		return State{DepotMg: -k * y.DepotMg}
	}

	evals := []float64{1, 2, 5, 10, 20}
	var got []State
	var gotTimes []float64
	record := func(tm float64, y State) {
		gotTimes = append(gotTimes, tm)
		got = append(got, y)
	}

	end, err := integrateSegment(f, 0, 20, State{DepotMg: 100}, evals, record, defaultSolverOpts())
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}

	if len(gotTimes) != len(evals) {
		t.Fatalf("recorded %d samples, want %d", len(gotTimes), len(evals))
	}
	for i, tm := range evals {
		if gotTimes[i] != tm {
			t.Errorf("sample %d at t=%v, want exactly %v", i, gotTimes[i], tm)
		}
		want := 100 * math.Exp(-k*tm)
		if rel := math.Abs(got[i].DepotMg-want) / want; rel > 1e-5 {
			t.Errorf("y(%v) = %v, want %v (rel err %v)", tm, got[i].DepotMg, want, rel)
		}
	}

	wantEnd := 100 * math.Exp(-k*20)
	if rel := math.Abs(end.DepotMg-wantEnd) / wantEnd; rel > 1e-5 {
		t.Errorf("end state = %v, want %v", end.DepotMg, wantEnd)
	}
}

func TestIntegrate_NoEvalsCarriesState(t *testing.T) {
	f := func(tm float64, y State) State {
		return State{CentralMg: 2} // constant growth
	}
	end, err := integrateSegment(f, 3, 7, State{CentralMg: 1}, nil, func(float64, State) {
		t.Error("record called with no eval points")
	}, defaultSolverOpts())
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if math.Abs(end.CentralMg-9) > 1e-9 {
		t.Errorf("end = %v, want 9", end.CentralMg)
	}
}

func TestIntegrate_ZeroLengthSpan(t *testing.T) {
	f := func(tm float64, y State) State { return State{} }
	end, err := integrateSegment(f, 5, 5, State{DepotMg: 3}, nil, nil, defaultSolverOpts())
	if err != nil {
		t.Fatalf("integrate: %v", err)
	}
	if end.DepotMg != 3 {
		t.Errorf("end = %v, want untouched state", end.DepotMg)
	}
}

func TestIntegrate_StepBudgetExhausted(t *testing.T) {
	f := func(tm float64, y State) State {
		return State{DepotMg: -y.DepotMg}
	}
	opts := defaultSolverOpts()
	opts.MaxSteps = 2
	_, err := integrateSegment(f, 0, 1000, State{DepotMg: 1}, nil, nil, opts)
	if !errors.Is(err, ErrNumerical) {
		t.Fatalf("integrate with a 2-step budget = %v, want ErrNumerical", err)
	}
}
