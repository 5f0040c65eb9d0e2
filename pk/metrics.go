package pk

import (
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"
)

// Exposure metrics over a completed Profile. All of these are pure reads:
// no mutation, no I/O. Windowed variants take a dosing interval in hours;
// an interval <= 0 means "use the whole series".

const (
	// DefaultSSTolerance is the relative tolerance for steady-state
	// detection: a window is steady when every sample is within this
	// fraction of the sample one interval earlier.
	DefaultSSTolerance = 0.05

	// DefaultSSLookback bounds how many intervals the steady-state search
	// walks backward before falling back to the last complete interval.
	DefaultSSLookback = 10
)

// CmaxTmax returns the global maximum concentration and the time of its
// first occurrence. NaN for an empty profile.
func (p Profile) CmaxTmax() (cmax, tmax float64) {
	return p.extremum(func(a, b float64) bool { return a > b })
}

// CminTmin returns the global minimum concentration and the time of its
// first occurrence. NaN for an empty profile.
func (p Profile) CminTmin() (cmin, tmin float64) {
	return p.extremum(func(a, b float64) bool { return a < b })
}

func (p Profile) extremum(better func(a, b float64) bool) (c, t float64) {
	if p.Len() == 0 {
		return math.NaN(), math.NaN()
	}
	best := 0
	for i := 1; i < p.Len(); i++ {
		if better(p.ConcsMgPerL[i], p.ConcsMgPerL[best]) {
			best = i
		}
	}
	return p.ConcsMgPerL[best], p.TimesH[best]
}

// AUC is the trapezoidal-rule area under the curve over the full recorded
// time range, in mg*h/L.
func (p Profile) AUC() float64 {
	if p.Len() < 2 {
		return 0
	}
	return integrate.Trapezoidal(p.TimesH, p.ConcsMgPerL)
}

// CAvg is the arithmetic mean concentration over all samples (not
// time-weighted). NaN for an empty profile.
func (p Profile) CAvg() float64 {
	if p.Len() == 0 {
		return math.NaN()
	}
	return stat.Mean(p.ConcsMgPerL, nil)
}

// Ctrough returns the concentration at the sample nearest the end of the
// last complete dosing interval. NaN when no complete interval fits.
func (p Profile) Ctrough(intervalH float64) float64 {
	n := p.Len()
	if n == 0 || intervalH <= 0 {
		return math.NaN()
	}
	intervals := int(p.TimesH[n-1] / intervalH)
	if intervals < 1 {
		return math.NaN()
	}
	target := float64(intervals) * intervalH
	best := 0
	for i := 1; i < n; i++ {
		if math.Abs(p.TimesH[i]-target) < math.Abs(p.TimesH[best]-target) {
			best = i
		}
	}
	return p.ConcsMgPerL[best]
}

// PeakToTroughRatio is Cmax/Cmin over the last complete dosing interval
// (the whole series when intervalH <= 0 or no complete interval fits).
// +Inf when the window's Cmin is <= 0.
func (p Profile) PeakToTroughRatio(intervalH float64) float64 {
	lo, hi := p.lastIntervalWindow(intervalH)
	return p.window(lo, hi).ptr()
}

// FluctuationIndex is (Cmax-Cmin)/mean over the last complete dosing
// interval (the whole series when intervalH <= 0 or no complete interval
// fits). +Inf when the window mean is zero.
func (p Profile) FluctuationIndex(intervalH float64) float64 {
	lo, hi := p.lastIntervalWindow(intervalH)
	return p.window(lo, hi).fi()
}

// SteadyStatePTR is the peak-to-trough ratio over the detected steady-state
// window. tol <= 0 selects DefaultSSTolerance.
func (p Profile) SteadyStatePTR(intervalH, tol float64) float64 {
	lo, hi := p.steadyStateWindow(intervalH, tol, DefaultSSLookback)
	return p.window(lo, hi).ptr()
}

// SteadyStateFI is the fluctuation index over the detected steady-state
// window. tol <= 0 selects DefaultSSTolerance.
func (p Profile) SteadyStateFI(intervalH, tol float64) float64 {
	lo, hi := p.steadyStateWindow(intervalH, tol, DefaultSSLookback)
	return p.window(lo, hi).fi()
}

// window returns the sub-profile for the inclusive index range [lo, hi].
func (p Profile) window(lo, hi int) Profile {
	return Profile{TimesH: p.TimesH[lo : hi+1], ConcsMgPerL: p.ConcsMgPerL[lo : hi+1]}
}

func (p Profile) ptr() float64 {
	cmax, _ := p.CmaxTmax()
	cmin, _ := p.CminTmin()
	if cmin <= 0 {
		return math.Inf(1)
	}
	return cmax / cmin
}

func (p Profile) fi() float64 {
	cmax, _ := p.CmaxTmax()
	cmin, _ := p.CminTmin()
	avg := p.CAvg()
	if avg == 0 {
		return math.Inf(1)
	}
	return (cmax - cmin) / avg
}

// lastIntervalWindow returns the index range [lo, hi] of the most recent
// complete dosing interval [lastEdge-intervalH, lastEdge], where lastEdge is
// the largest multiple of intervalH not exceeding the final sample time.
// Falls back to the whole series when intervalH <= 0 or the window would
// start before the first sample.
func (p Profile) lastIntervalWindow(intervalH float64) (lo, hi int) {
	n := p.Len()
	if n == 0 {
		return 0, -1
	}
	if intervalH <= 0 {
		return 0, n - 1
	}
	lastEdge := math.Floor(p.TimesH[n-1]/intervalH) * intervalH
	start := lastEdge - intervalH
	if start < p.TimesH[0] {
		return 0, n - 1
	}
	return p.indexRange(start, lastEdge)
}

// steadyStateWindow finds the most recent complete dosing interval whose
// profile repeats, within tol, the profile one interval earlier. The shifted
// curve C(t-intervalH) is obtained by linear interpolation onto the sample
// grid, holding edge values constant outside the recorded range. The search
// walks backward up to maxLookback intervals; when none qualifies, the last
// complete interval is used unconditionally.
func (p Profile) steadyStateWindow(intervalH, tol float64, maxLookback int) (lo, hi int) {
	n := p.Len()
	if n == 0 {
		return 0, -1
	}
	if intervalH <= 0 || n < 2 {
		return 0, n - 1
	}
	if tol <= 0 {
		tol = DefaultSSTolerance
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(p.TimesH, p.ConcsMgPerL); err != nil {
		return p.lastIntervalWindow(intervalH)
	}
	tFirst, tLast := p.TimesH[0], p.TimesH[n-1]

	// Pointwise relative difference against the curve one interval earlier.
	relDiff := make([]float64, n)
	for i, t := range p.TimesH {
		q := math.Min(tLast, math.Max(tFirst, t-intervalH))
		shifted := pl.Predict(q)
		denom := math.Max(math.Abs(p.ConcsMgPerL[i]), 1e-12)
		relDiff[i] = math.Abs(p.ConcsMgPerL[i]-shifted) / denom
	}

	lastEdge := math.Floor(tLast/intervalH) * intervalH
	for k := 0; k < maxLookback; k++ {
		endEdge := lastEdge - float64(k)*intervalH
		startEdge := endEdge - intervalH
		if startEdge < tFirst {
			break
		}
		wlo, whi := p.indexRange(startEdge, endEdge)
		if windowStable(relDiff[wlo:whi+1], tol) {
			return wlo, whi
		}
	}
	return p.lastIntervalWindow(intervalH)
}

func windowStable(relDiff []float64, tol float64) bool {
	if len(relDiff) == 0 {
		return false
	}
	for _, d := range relDiff {
		if d > tol {
			return false
		}
	}
	return true
}

// indexRange returns the inclusive index range of samples with time in
// [start, end]. Assumes TimesH is sorted ascending.
func (p Profile) indexRange(start, end float64) (lo, hi int) {
	n := p.Len()
	lo = 0
	for lo < n && p.TimesH[lo] < start {
		lo++
	}
	hi = n - 1
	for hi >= 0 && p.TimesH[hi] > end {
		hi--
	}
	if hi < lo {
		// Degenerate window; fall back to the nearest single sample.
		if lo >= n {
			lo = n - 1
		}
		hi = lo
	}
	return lo, hi
}
