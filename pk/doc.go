// Package pk provides the core simulation engine for a one-compartment
// pharmacokinetic model with first-order absorption and elimination.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - dose.go: Dose/Regimen/Drug value types and their validation rules
//   - model.go: the compartment state record and the ODE right-hand side
//   - simulate.go: segment-boundary construction, bolus jumps, and the
//     per-segment integration loop that produces a sampled Profile
//
// # Architecture
//
// A Regimen (built by the helpers in dosing.go or loaded from a YAML
// scenario in scenario.go) and a Drug's parameters feed Simulate, which
// splits the horizon at every point where the right-hand side is
// discontinuous (dose starts, infusion ends) and integrates each smooth
// segment with the adaptive Dormand-Prince stepper in solver.go. Bolus
// doses are applied as instantaneous state jumps between segments.
//
// The resulting Profile is a plain (time, concentration) pair; metrics.go
// derives exposure summaries from it (Cmax/Tmax, AUC, peak-to-trough
// ratio, fluctuation index) including steady-state-aware variants, and
// report.go packages those summaries for presentation consumers.
//
// Compounds do not interact in this model, so SimulateAll runs one solve
// per compound concurrently.
package pk
