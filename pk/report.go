package pk

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
)

// Report aggregates one compound's exposure metrics for presentation
// consumers. Window-dependent ratios are pointers so a value that is
// undefined (no interval supplied) or infinite (zero trough/mean) is
// omitted from JSON rather than breaking the encoder.
type Report struct {
	RunID    string `json:"run_id"`
	Compound string `json:"compound"`

	HorizonH  float64 `json:"horizon_h"`
	StepH     float64 `json:"step_h"`
	IntervalH float64 `json:"interval_h,omitempty"`
	Samples   int     `json:"samples"`

	CmaxMgPerL float64 `json:"cmax_mg_per_l"`
	TmaxH      float64 `json:"tmax_h"`
	CminMgPerL float64 `json:"cmin_mg_per_l"`
	TminH      float64 `json:"tmin_h"`
	AUCMgHPerL float64 `json:"auc_mg_h_per_l"`
	CavgMgPerL float64 `json:"cavg_mg_per_l"`

	CtroughMgPerL *float64 `json:"ctrough_mg_per_l,omitempty"`
	PTR           *float64 `json:"peak_to_trough_ratio,omitempty"`
	FI            *float64 `json:"fluctuation_index,omitempty"`
	PTRSteady     *float64 `json:"peak_to_trough_ratio_ss,omitempty"`
	FISteady      *float64 `json:"fluctuation_index_ss,omitempty"`
}

// Summarize computes the full metric set for one compound's profile.
// intervalH <= 0 skips the windowed and steady-state metrics.
func Summarize(compound string, p Profile, horizonH, stepH, intervalH, ssTol float64) *Report {
	cmax, tmax := p.CmaxTmax()
	cmin, tmin := p.CminTmin()
	r := &Report{
		RunID:      uuid.NewString(),
		Compound:   compound,
		HorizonH:   horizonH,
		StepH:      stepH,
		Samples:    p.Len(),
		CmaxMgPerL: cmax,
		TmaxH:      tmax,
		CminMgPerL: cmin,
		TminH:      tmin,
		AUCMgHPerL: p.AUC(),
		CavgMgPerL: p.CAvg(),
	}
	if intervalH > 0 {
		r.IntervalH = intervalH
		r.CtroughMgPerL = finiteOrNil(p.Ctrough(intervalH))
		r.PTR = finiteOrNil(p.PeakToTroughRatio(intervalH))
		r.FI = finiteOrNil(p.FluctuationIndex(intervalH))
		r.PTRSteady = finiteOrNil(p.SteadyStatePTR(intervalH, ssTol))
		r.FISteady = finiteOrNil(p.SteadyStateFI(intervalH, ssTol))
	}
	return r
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Print displays the report on stdout.
func (r *Report) Print() {
	fmt.Printf("=== Exposure metrics: %s ===\n", r.Compound)
	fmt.Printf("Samples              : %d (dt=%.3g h over %.4g h)\n", r.Samples, r.StepH, r.HorizonH)
	fmt.Printf("Cmax / Tmax          : %.4g mg/L at %.4g h\n", r.CmaxMgPerL, r.TmaxH)
	fmt.Printf("Cmin / Tmin          : %.4g mg/L at %.4g h\n", r.CminMgPerL, r.TminH)
	fmt.Printf("AUC                  : %.4g mg*h/L\n", r.AUCMgHPerL)
	fmt.Printf("Cavg                 : %.4g mg/L\n", r.CavgMgPerL)
	if r.IntervalH > 0 {
		printOptional("Ctrough              ", r.CtroughMgPerL, "mg/L")
		printOptional("Peak-to-trough       ", r.PTR, "")
		printOptional("Fluctuation index    ", r.FI, "")
		printOptional("Peak-to-trough (ss)  ", r.PTRSteady, "")
		printOptional("Fluctuation idx (ss) ", r.FISteady, "")
	}
}

func printOptional(label string, v *float64, unit string) {
	if v == nil {
		fmt.Printf("%s: n/a\n", label)
		return
	}
	if unit != "" {
		fmt.Printf("%s: %.4g %s\n", label, *v, unit)
		return
	}
	fmt.Printf("%s: %.4g\n", label, *v)
}

// SaveJSON writes the report to path as indented JSON.
func (r *Report) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
