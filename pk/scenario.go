package pk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a complete simulation description, loadable from a YAML file:
// the horizon and sampling step, per-compound drug parameters, and one or
// more dosing schedules that together form the regimen.
type Scenario struct {
	HorizonH    float64          `yaml:"horizon_h"`     // simulation end time (hours, > 0)
	StepH       float64          `yaml:"step_h"`        // output sampling step (hours, default 1.0)
	IntervalH   float64          `yaml:"interval_h"`    // dosing interval for windowed metrics (0 = full series)
	SSTolerance float64          `yaml:"ss_tolerance"`  // steady-state tolerance (default 0.05)
	Drugs       []DrugConfig     `yaml:"drugs"`         // per-compound PK parameters
	Schedules   []ScheduleConfig `yaml:"schedules"`     // dosing schedules, merged into one regimen
}

// DrugConfig holds one compound's PK parameters as written in YAML.
type DrugConfig struct {
	Compound       string  `yaml:"compound"`
	ClearanceLPerH float64 `yaml:"clearance_l_per_h"`
	VolumeL        float64 `yaml:"volume_l"`
	KaPerH         float64 `yaml:"ka_per_h"`
}

// ScheduleConfig describes one dosing schedule. Which fields apply depends
// on Type; unused fields are ignored by Build.
type ScheduleConfig struct {
	Compound     string          `yaml:"compound"`
	Type         string          `yaml:"type"`  // "single", "repeated", "infusion", "explicit"
	Route        string          `yaml:"route"` // im/sc/po/iv_bolus/iv_infusion
	AmountMg     float64         `yaml:"amount_mg"`
	StartH       float64         `yaml:"start_h"`        // single, infusion
	DurationH    float64         `yaml:"duration_h"`     // infusion (and single with iv_infusion route)
	EveryDays    int             `yaml:"every_days"`     // repeated
	Weeks        int             `yaml:"weeks"`          // repeated
	StartOffsetH float64         `yaml:"start_offset_h"` // repeated
	Entries      []ExplicitEntry `yaml:"entries"`        // explicit
}

// ExplicitEntry is one manual dose row of an "explicit" schedule.
type ExplicitEntry struct {
	StartH   float64 `yaml:"start_h"`
	AmountMg float64 `yaml:"amount_mg"`
}

// ValidScheduleTypes is the set of recognized schedule type names.
var ValidScheduleTypes = map[string]bool{
	"single":   true,
	"repeated": true,
	"infusion": true,
	"explicit": true,
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	s.applyDefaults()
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.StepH == 0 {
		s.StepH = 1.0
	}
	if s.SSTolerance == 0 {
		s.SSTolerance = DefaultSSTolerance
	}
}

// Validate checks the scenario's global settings and cross-references:
// every schedule must name a compound with drug parameters, and every
// schedule type must be recognized. Dose-level field validation happens in
// Build via the schedule builders.
func (s *Scenario) Validate() error {
	if !(s.HorizonH > 0) {
		return fmt.Errorf("%w: horizon_h must be > 0, got %v", ErrValidation, s.HorizonH)
	}
	if !(s.StepH > 0) {
		return fmt.Errorf("%w: step_h must be > 0, got %v", ErrValidation, s.StepH)
	}
	if s.IntervalH < 0 {
		return fmt.Errorf("%w: interval_h must be >= 0, got %v", ErrValidation, s.IntervalH)
	}
	if len(s.Drugs) == 0 {
		return fmt.Errorf("%w: scenario has no drugs", ErrValidation)
	}
	if len(s.Schedules) == 0 {
		return fmt.Errorf("%w: scenario has no schedules", ErrValidation)
	}
	known := make(map[string]bool, len(s.Drugs))
	for i, d := range s.Drugs {
		if d.Compound == "" {
			return fmt.Errorf("%w: drug %d has no compound identifier", ErrValidation, i)
		}
		if known[d.Compound] {
			return fmt.Errorf("%w: duplicate drug entry for compound %q", ErrValidation, d.Compound)
		}
		known[d.Compound] = true
	}
	for i, sc := range s.Schedules {
		if !ValidScheduleTypes[sc.Type] {
			return fmt.Errorf("%w: schedule %d: unknown type %q", ErrValidation, i, sc.Type)
		}
		if !known[sc.Compound] {
			return fmt.Errorf("%w: schedule %d: no drug parameters for compound %q", ErrValidation, i, sc.Compound)
		}
	}
	return nil
}

// Build turns the scenario into solver inputs: the compound-to-parameters
// map and the merged regimen.
func (s *Scenario) Build() (map[string]Drug, Regimen, error) {
	if err := s.Validate(); err != nil {
		return nil, Regimen{}, err
	}

	drugs := make(map[string]Drug, len(s.Drugs))
	for _, dc := range s.Drugs {
		d := Drug{
			Compound:       dc.Compound,
			ClearanceLPerH: dc.ClearanceLPerH,
			VolumeL:        dc.VolumeL,
			KaPerH:         dc.KaPerH,
		}
		if err := d.Validate(); err != nil {
			return nil, Regimen{}, fmt.Errorf("drug %q: %w", dc.Compound, err)
		}
		drugs[dc.Compound] = d
	}

	regimens := make([]Regimen, 0, len(s.Schedules))
	for i, sc := range s.Schedules {
		r, err := sc.build()
		if err != nil {
			return nil, Regimen{}, fmt.Errorf("schedule %d: %w", i, err)
		}
		regimens = append(regimens, r)
	}
	return drugs, Combine(regimens...), nil
}

func (sc ScheduleConfig) build() (Regimen, error) {
	switch sc.Type {
	case "single":
		return SingleDose(sc.Compound, Route(sc.Route), sc.AmountMg, sc.StartH, sc.DurationH)
	case "repeated":
		return FixedEveryNDays(sc.Compound, Route(sc.Route), sc.AmountMg, sc.EveryDays, sc.Weeks, sc.StartOffsetH)
	case "infusion":
		return Infusion(sc.Compound, sc.AmountMg, sc.StartH, sc.DurationH)
	case "explicit":
		entries := make([]ScheduleEntry, len(sc.Entries))
		for i, e := range sc.Entries {
			entries[i] = ScheduleEntry{StartH: e.StartH, AmountMg: e.AmountMg}
		}
		return ExplicitSchedule(sc.Compound, Route(sc.Route), entries)
	default:
		return Regimen{}, fmt.Errorf("%w: unknown schedule type %q", ErrValidation, sc.Type)
	}
}
