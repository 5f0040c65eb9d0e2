package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	pk "github.com/pksim/pksim/pk"
)

var (
	// CLI flags for the simulation run
	scenarioPath string  // YAML scenario file (multi-compound); overrides the single-drug flags
	logLevel     string  // Log verbosity level
	horizonH     float64 // Simulation end time (hours)
	stepH        float64 // Output sampling step (hours)
	intervalH    float64 // Dosing interval for windowed metrics (hours, 0 = full series)
	ssTolerance  float64 // Relative tolerance for steady-state detection

	// CLI flags for a quick single-drug run (ignored when --scenario is set)
	compound     string  // Compound identifier
	clearance    float64 // CL, liters per hour
	volume       float64 // V, liters
	ka           float64 // Absorption rate constant, 1/hour
	route        string  // Administration route (im/sc/po/iv_bolus/iv_infusion)
	amountMg     float64 // Dose size, milligrams
	startOffsetH float64 // Start time of the first (or only) dose, hours
	durationH    float64 // Infusion duration, hours (iv_infusion only)
	everyDays    int     // Repeat spacing in days (0 = single dose)
	weeks        int     // Regimen length in weeks (repeated schedules)

	// CLI flags for outputs
	outDir string // Directory for per-compound JSON reports (empty = skip)
	csvDir string // Directory for per-compound time,concentration CSVs (empty = skip)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pksim",
	Short: "One-compartment pharmacokinetic simulator",
}

// runCmd executes a simulation using parameters from CLI flags or a YAML scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a dosing regimen and report exposure metrics",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		drugs, regimen := buildInputs()

		logrus.Infof("Starting simulation: %d compound(s), %d dose(s), horizon=%gh, dt=%gh",
			len(drugs), len(regimen.Doses), horizonH, stepH)

		results, err := pk.SimulateAll(context.Background(), drugs, regimen, horizonH, stepH)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		compounds := make([]string, 0, len(results))
		for c := range results {
			compounds = append(compounds, c)
		}
		sort.Strings(compounds)

		for _, c := range compounds {
			profile := results[c]
			report := pk.Summarize(c, profile, horizonH, stepH, intervalH, ssTolerance)
			report.Print()
			if outDir != "" {
				path := filepath.Join(outDir, c+"_report.json")
				if err := report.SaveJSON(path); err != nil {
					logrus.Fatalf("Error saving report for %q: %v", c, err)
				}
				logrus.Infof("Wrote report to %s", path)
			}
			if csvDir != "" {
				path := filepath.Join(csvDir, c+"_profile.csv")
				writeProfileCSV(profile, path)
				logrus.Infof("Wrote profile to %s", path)
			}
		}
	},
}

// buildInputs assembles the drug map and regimen either from a YAML
// scenario or from the single-drug flags.
func buildInputs() (map[string]pk.Drug, pk.Regimen) {
	if scenarioPath != "" {
		scenario, err := pk.LoadScenario(scenarioPath)
		if err != nil {
			logrus.Fatalf("Error loading scenario: %v", err)
		}
		drugs, regimen, err := scenario.Build()
		if err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		horizonH = scenario.HorizonH
		stepH = scenario.StepH
		intervalH = scenario.IntervalH
		ssTolerance = scenario.SSTolerance
		return drugs, regimen
	}

	if compound == "" {
		logrus.Fatalf("Compound identifier not provided. Exiting simulation.")
	}
	drug := pk.Drug{Compound: compound, ClearanceLPerH: clearance, VolumeL: volume, KaPerH: ka}

	var regimen pk.Regimen
	var err error
	if everyDays > 0 {
		regimen, err = pk.FixedEveryNDays(compound, pk.Route(route), amountMg, everyDays, weeks, startOffsetH)
	} else {
		regimen, err = pk.SingleDose(compound, pk.Route(route), amountMg, startOffsetH, durationH)
	}
	if err != nil {
		logrus.Fatalf("Invalid dosing schedule: %v", err)
	}
	return map[string]pk.Drug{compound: drug}, regimen
}

// writeProfileCSV dumps a profile as time_h,conc_mg_per_l rows.
func writeProfileCSV(p pk.Profile, path string) {
	file, err := os.Create(path)
	if err != nil {
		logrus.Fatalf("Error creating file %s: %v", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logrus.Fatalf("Error closing file %s: %v", path, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer func() {
		writer.Flush()
		if flushErr := writer.Error(); flushErr != nil {
			logrus.Fatalf("Error flushing writer for file %s: %v", path, flushErr)
		}
	}()

	if err := writer.Write([]string{"time_h", "conc_mg_per_l"}); err != nil {
		logrus.Fatalf("Error writing csv header to %s: %v", path, err)
	}
	for i := range p.TimesH {
		row := []string{
			strconv.FormatFloat(p.TimesH[i], 'g', -1, 64),
			strconv.FormatFloat(p.ConcsMgPerL[i], 'g', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			logrus.Fatalf("Error writing csv row %d to %s: %v", i, path, err)
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file (multi-compound)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().Float64Var(&horizonH, "horizon", 1344, "Simulation end time in hours")
	runCmd.Flags().Float64Var(&stepH, "dt", 1.0, "Output sampling step in hours")
	runCmd.Flags().Float64Var(&intervalH, "interval", 0, "Dosing interval in hours for windowed metrics (0 = full series)")
	runCmd.Flags().Float64Var(&ssTolerance, "ss-tol", pk.DefaultSSTolerance, "Steady-state relative tolerance")

	runCmd.Flags().StringVar(&compound, "compound", "", "Compound identifier")
	runCmd.Flags().Float64Var(&clearance, "cl", 0, "Clearance in L/h")
	runCmd.Flags().Float64Var(&volume, "vol", 0, "Volume of distribution in L")
	runCmd.Flags().Float64Var(&ka, "ka", 0, "Absorption rate constant in 1/h")
	runCmd.Flags().StringVar(&route, "route", "im", "Administration route")
	runCmd.Flags().Float64Var(&amountMg, "amount", 0, "Dose size in mg")
	runCmd.Flags().Float64Var(&startOffsetH, "start", 0, "Start time of the first dose in hours")
	runCmd.Flags().Float64Var(&durationH, "duration", 0, "Infusion duration in hours")
	runCmd.Flags().IntVar(&everyDays, "every-days", 0, "Repeat spacing in days (0 = single dose)")
	runCmd.Flags().IntVar(&weeks, "weeks", 8, "Regimen length in weeks")

	runCmd.Flags().StringVar(&outDir, "out", "", "Directory for JSON reports")
	runCmd.Flags().StringVar(&csvDir, "csv", "", "Directory for profile CSVs")

	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
