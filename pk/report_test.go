package pk

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_FieldsAndJSONRoundTrip(t *testing.T) {
	drug := Drug{Compound: "testosterone", ClearanceLPerH: 12, VolumeL: 300, KaPerH: 0.1}
	reg, err := FixedEveryNDays("testosterone", RouteIM, 250, 3, 8, 0)
	require.NoError(t, err)

	horizon := 8.0 * 7 * 24
	p, err := Simulate(context.Background(), drug, reg, horizon, 1.0)
	require.NoError(t, err)

	r := Summarize("testosterone", p, horizon, 1.0, 72, DefaultSSTolerance)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, "testosterone", r.Compound)
	assert.Equal(t, p.Len(), r.Samples)
	assert.Greater(t, r.CmaxMgPerL, 0.0)
	assert.Greater(t, r.AUCMgHPerL, 0.0)
	require.NotNil(t, r.PTR)
	assert.Greater(t, *r.PTR, 1.0)
	require.NotNil(t, r.PTRSteady)
	require.NotNil(t, r.CtroughMgPerL)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.SaveJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var back Report
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, r.CmaxMgPerL, back.CmaxMgPerL)
	require.NotNil(t, back.FI)
	assert.Equal(t, *r.FI, *back.FI)
}

func TestSummarize_NoIntervalSkipsWindowedMetrics(t *testing.T) {
	p := Profile{TimesH: []float64{1, 2, 3}, ConcsMgPerL: []float64{1, 2, 1}}
	r := Summarize("x", p, 3, 1, 0, 0)
	assert.Zero(t, r.IntervalH)
	assert.Nil(t, r.PTR)
	assert.Nil(t, r.FI)
	assert.Nil(t, r.PTRSteady)
	assert.Nil(t, r.FISteady)
	assert.Nil(t, r.CtroughMgPerL)
}

func TestSummarize_InfiniteRatioOmitted(t *testing.T) {
	// All-zero window: PTR and FI are infinite and must be dropped from the
	// report rather than sent to the JSON encoder.
	p := Profile{TimesH: []float64{1, 2, 3, 4}, ConcsMgPerL: []float64{0, 0, 0, 0}}
	r := Summarize("x", p, 4, 1, 2, 0)
	assert.Nil(t, r.PTR)
	assert.Nil(t, r.FI)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.SaveJSON(path))
}
