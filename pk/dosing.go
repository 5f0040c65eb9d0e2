package pk

import (
	"fmt"
	"sort"
)

// Schedule builders. These are thin producers of the solver's input
// contract: each validates its arguments and returns a Regimen whose doses
// satisfy the Dose invariants.

// ScheduleEntry is one manual (start time, amount) pair for ExplicitSchedule.
type ScheduleEntry struct {
	StartH   float64
	AmountMg float64
}

// SingleDose builds a regimen with exactly one dose, e.g. 250 mg IM at t=0,
// or a 2-hour IV infusion when route is iv_infusion and durationH > 0.
func SingleDose(compound string, route Route, amountMg, startH, durationH float64) (Regimen, error) {
	d, err := NewDose(compound, route, amountMg, startH, durationH)
	if err != nil {
		return Regimen{}, err
	}
	return Regimen{Doses: []Dose{d}}, nil
}

// FixedEveryNDays builds a repeated schedule like "250 mg IM every 3 days
// for 8 weeks". Doses land on day 0, everyDays, 2*everyDays, ... up to and
// including weeks*7 days, each shifted by startOffsetH hours.
func FixedEveryNDays(compound string, route Route, amountMg float64, everyDays, weeks int, startOffsetH float64) (Regimen, error) {
	if everyDays <= 0 {
		return Regimen{}, fmt.Errorf("%w: every_days must be a positive integer, got %d", ErrValidation, everyDays)
	}
	if weeks <= 0 {
		return Regimen{}, fmt.Errorf("%w: weeks must be a positive integer, got %d", ErrValidation, weeks)
	}
	if startOffsetH < 0 {
		return Regimen{}, fmt.Errorf("%w: start_offset_h must be >= 0, got %v", ErrValidation, startOffsetH)
	}

	totalDays := weeks * 7
	var doses []Dose
	for day := 0; day <= totalDays; day += everyDays {
		d, err := NewDose(compound, route, amountMg, float64(day)*24.0+startOffsetH, 0)
		if err != nil {
			return Regimen{}, err
		}
		doses = append(doses, d)
	}
	return Regimen{Doses: doses}, nil
}

// Infusion builds a single zero-order input of a total amount over a
// duration, e.g. 1000 mg starting at t=0 over 2 h.
func Infusion(compound string, amountMg, startH, durationH float64) (Regimen, error) {
	return SingleDose(compound, RouteIVInfusion, amountMg, startH, durationH)
}

// ExplicitSchedule builds a regimen from manual (start, amount) entries,
// sorted by start time.
func ExplicitSchedule(compound string, route Route, entries []ScheduleEntry) (Regimen, error) {
	doses := make([]Dose, 0, len(entries))
	for _, e := range entries {
		d, err := NewDose(compound, route, e.AmountMg, e.StartH, 0)
		if err != nil {
			return Regimen{}, err
		}
		doses = append(doses, d)
	}
	sortDoses(doses)
	return Regimen{Doses: doses}, nil
}

// Combine merges regimens into one, e.g. an IM schedule plus an IV loading
// dose, or schedules for different compounds. Doses are concatenated and
// sorted by start time for readability; the solver does not rely on order.
func Combine(regimens ...Regimen) Regimen {
	var all []Dose
	for _, r := range regimens {
		all = append(all, r.Doses...)
	}
	sortDoses(all)
	return Regimen{Doses: all}
}

// SplitByCompound groups a regimen's doses by compound identifier into
// separate per-compound regimens, each sorted by start time.
func SplitByCompound(r Regimen) map[string]Regimen {
	buckets := make(map[string][]Dose)
	for _, d := range r.Doses {
		buckets[d.Compound] = append(buckets[d.Compound], d)
	}
	out := make(map[string]Regimen, len(buckets))
	for compound, doses := range buckets {
		sortDoses(doses)
		out[compound] = Regimen{Doses: doses}
	}
	return out
}

func sortDoses(doses []Dose) {
	sort.SliceStable(doses, func(i, j int) bool {
		if doses[i].StartH != doses[j].StartH {
			return doses[i].StartH < doses[j].StartH
		}
		return doses[i].Route < doses[j].Route
	})
}
