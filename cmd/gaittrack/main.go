package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/motionlab/gaittrack/internal/analysis"
	"github.com/motionlab/gaittrack/internal/config"
	"github.com/motionlab/gaittrack/internal/optim"
	"github.com/motionlab/gaittrack/internal/solver"
	"github.com/motionlab/gaittrack/internal/storage"
	"github.com/motionlab/gaittrack/internal/studies"
	"github.com/motionlab/gaittrack/internal/viz"
)

var (
	resultsDir string
	dataDir    string
	verbose    bool

	meshInterval  float64
	initialTime   float64
	finalTime     float64
	maxIterations int
	configFile    string
	preset        string

	plotColumn string
	phaseCoord string
	exportPath string

	tuneWeights  string
	tuneEfforts  string
	tuneMaxIters int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gaittrack",
		Short: "musculoskeletal tracking optimization lab",
	}

	rootCmd.PersistentFlags().StringVar(&resultsDir, "results", config.DefaultResultsDir, "results directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose solver logging")

	runCmd := &cobra.Command{
		Use:   "run [study]",
		Short: "solve a tracking study",
		Args:  cobra.ExactArgs(1),
		RunE:  runStudy,
	}
	runCmd.Flags().StringVar(&dataDir, "data", config.DefaultDataDir, "input data directory")
	runCmd.Flags().Float64Var(&meshInterval, "mesh", 0, "mesh interval override (s)")
	runCmd.Flags().Float64Var(&initialTime, "t0", 0, "initial time override (s)")
	runCmd.Flags().Float64Var(&finalTime, "t1", 0, "final time override (s)")
	runCmd.Flags().IntVar(&maxIterations, "max-iter", 0, "max solver iterations")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	studiesCmd := &cobra.Command{
		Use:   "studies",
		Short: "list available studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range studies.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [study]",
		Short: "list available presets for a study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for study: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot solution coordinates",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotColumn, "column", "", "plot a single column by label")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "coordinate phase plot (value vs speed)",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&phaseCoord, "coordinate", "", "coordinate path, e.g. /jointset/hip_r/hip_flexion_r")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "gait frequency and residual analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotColumn, "column", "", "column for the spectrum (default: first coordinate value)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&exportPath, "out", "", "output path (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&exportPath, "out", "solution.csv", "output path")

	tuneCmd := &cobra.Command{
		Use:   "tune [study]",
		Short: "grid search over tracking and effort weights",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneStudy,
	}
	tuneCmd.Flags().StringVar(&dataDir, "data", config.DefaultDataDir, "input data directory")
	tuneCmd.Flags().StringVar(&tuneWeights, "weights", "1,5,10,20", "tracking weight candidates")
	tuneCmd.Flags().StringVar(&tuneEfforts, "effort-weights", "0.001,0.01,0.1", "effort weight candidates")
	tuneCmd.Flags().IntVar(&tuneMaxIters, "max-iter", 30, "solver iterations per candidate")

	liveCmd := &cobra.Command{
		Use:   "live [study]",
		Short: "solve with live progress view",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&dataDir, "data", config.DefaultDataDir, "input data directory")
	liveCmd.Flags().Float64Var(&meshInterval, "mesh", 0, "mesh interval override (s)")
	liveCmd.Flags().IntVar(&maxIterations, "max-iter", 0, "max solver iterations")

	rootCmd.AddCommand(runCmd, studiesCmd, presetsCmd, listCmd, plotCmd, phaseCmd, analyzeCmd, exportCmd, exportJSONCmd, exportCSVCmd, tuneCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func studyParams(cmd *cobra.Command, studyName string) (studies.Params, error) {
	p := studies.Params{
		DataDir: dataDir,
		Logger:  newLogger(),
	}

	if preset != "" {
		cfg := config.GetPreset(studyName, preset)
		if cfg == nil {
			return p, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(studyName))
		}
		p.MeshInterval = cfg.MeshInterval
		p.InitialTime = cfg.InitialTime
		p.FinalTime = cfg.FinalTime
		p.MaxIterations = cfg.MaxIterations
	}

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return p, fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed("data") && cfg.DataDir != "" {
			p.DataDir = cfg.DataDir
		}
		if !cmd.Flags().Changed("mesh") {
			p.MeshInterval = cfg.MeshInterval
		}
		if !cmd.Flags().Changed("t0") {
			p.InitialTime = cfg.InitialTime
		}
		if !cmd.Flags().Changed("t1") {
			p.FinalTime = cfg.FinalTime
		}
		if !cmd.Flags().Changed("max-iter") {
			p.MaxIterations = cfg.MaxIterations
		}
	}

	if cmd.Flags().Changed("mesh") {
		p.MeshInterval = meshInterval
	}
	if cmd.Flags().Changed("t0") || cmd.Flags().Changed("t1") {
		p.InitialTime = initialTime
		p.FinalTime = finalTime
	}
	if cmd.Flags().Changed("max-iter") {
		p.MaxIterations = maxIterations
	}
	return p, nil
}

func runStudy(cmd *cobra.Command, args []string) error {
	studyName := args[0]

	build, err := studies.NewRegistry().Get(studyName)
	if err != nil {
		return err
	}
	params, err := studyParams(cmd, studyName)
	if err != nil {
		return err
	}

	st := storage.New(resultsDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := build(params)
	if err != nil {
		return err
	}

	fmt.Printf("solving %s...\n", studyName)
	start := time.Now()

	sol, solveErr := s.Solve(context.Background())
	if solveErr != nil && !errors.Is(solveErr, solver.ErrNotConverged) {
		return solveErr
	}

	runID, err := st.Save(studyName, s, sol)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("iterations: %d\n", sol.Iterations)
	fmt.Printf("objective: %.6g\n", sol.Objective)
	if errors.Is(solveErr, solver.ErrNotConverged) {
		fmt.Println("warning: solver did not converge")
	}
	fmt.Println("\ngoal values:")
	for name, val := range sol.GoalValues {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(resultsDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDY\tTIME\tWINDOW\tMESH\tITER\tOBJECTIVE\tCONVERGED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t[%.2f, %.2f]\t%.3fs\t%d\t%.4g\t%v\n",
			run.ID,
			run.Study,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.InitialTime,
			run.FinalTime,
			run.MeshInterval,
			run.Iterations,
			run.Objective,
			run.Converged,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resultsDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tbl, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("study: %s\n", meta.Study)
	fmt.Printf("samples: %d\n\n", len(tbl.Times))

	labels := tbl.Labels
	if plotColumn != "" {
		labels = []string{plotColumn}
	}

	const maxPlots = 6
	plotted := 0
	for _, label := range labels {
		if plotColumn == "" && !strings.HasSuffix(label, "/value") {
			continue
		}
		col, ok := tbl.Column(label)
		if !ok {
			return fmt.Errorf("no column %s in solution", label)
		}

		graph := asciigraph.Plot(col,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(label),
		)
		fmt.Println(graph)
		fmt.Println()

		plotted++
		if plotted >= maxPlots {
			break
		}
	}

	if plotted == 0 {
		return fmt.Errorf("no coordinate columns to plot")
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resultsDir)
	tbl, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}

	coord := phaseCoord
	if coord == "" {
		for _, label := range tbl.Labels {
			if strings.HasSuffix(label, "/value") {
				coord = strings.TrimSuffix(label, "/value")
				break
			}
		}
	}
	if coord == "" {
		return fmt.Errorf("no coordinate columns in solution")
	}

	portrait := analysis.GeneratePhasePortrait(tbl, coord+"/value", coord+"/speed")
	if portrait == nil {
		return fmt.Errorf("no value/speed columns for %s", coord)
	}

	fmt.Printf("phase plot: %s\n\n", coord)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(resultsDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tbl, err := st.LoadSolution(runID)
	if err != nil {
		return err
	}

	column := plotColumn
	if column == "" {
		for _, label := range tbl.Labels {
			if strings.HasSuffix(label, "/value") && !strings.Contains(label, "_tx") {
				column = label
				break
			}
		}
	}
	if column == "" {
		return fmt.Errorf("no coordinate columns in solution")
	}
	col, ok := tbl.Column(column)
	if !ok {
		return fmt.Errorf("no column %s in solution", column)
	}

	fmt.Printf("gait analysis: %s\n", meta.ID)
	fmt.Printf("study: %s\n\n", meta.Study)

	ps := analysis.PowerSpectrum(col)
	plotData := ps
	if len(ps) > 4 {
		plotData = ps[:len(ps)/4]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+column+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(tbl.Times, col)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("stride period: %.3f s\n", 1.0/freq)
	}

	for _, label := range tbl.Labels {
		if strings.Contains(label, "_tx") && strings.HasSuffix(label, "/value") {
			if v, ok := analysis.AverageSpeed(tbl, label); ok {
				fmt.Printf("average speed (%s): %.3f m/s\n", label, v)
			}
			break
		}
	}

	residuals := analysis.ResidualRMS(tbl, "pelvis")
	if len(residuals) > 0 {
		fmt.Println("\npelvis residual RMS:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for label, rms := range residuals {
			fmt.Fprintf(w, "  %s\t%.6f\n", label, rms)
		}
		w.Flush()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(resultsDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(resultsDir).ExportJSON(args[0], exportPath)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	if err := storage.New(resultsDir).ExportCSV(args[0], exportPath); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", exportPath)
	return nil
}

func parseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func tuneStudy(cmd *cobra.Command, args []string) error {
	studyName := args[0]

	build, err := studies.NewRegistry().Get(studyName)
	if err != nil {
		return err
	}
	weights, err := parseFloatList(tuneWeights)
	if err != nil {
		return err
	}
	efforts, err := parseFloatList(tuneEfforts)
	if err != nil {
		return err
	}

	gs := optim.NewGridSearch(
		[]string{"tracking_weight", "effort_weight"},
		[][]float64{weights, efforts},
	)

	evaluate := func(ctx context.Context, params map[string]float64) (float64, error) {
		s, err := build(studies.Params{
			DataDir:       dataDir,
			MaxIterations: tuneMaxIters,
			Logger:        newLogger(),
		})
		if err != nil {
			return 0, err
		}

		for _, name := range []string{"marker_tracking", "state_tracking"} {
			if g, ok := s.Problem().UpdGoal(name); ok {
				g.SetWeight(params["tracking_weight"])
			}
		}
		if g, ok := s.Problem().UpdGoal("control_effort"); ok {
			g.SetWeight(params["effort_weight"])
		}

		sol, err := s.Solve(ctx)
		if err != nil && !errors.Is(err, solver.ErrNotConverged) {
			return 0, err
		}

		// Compare candidates by tracking error alone, with the weight
		// divided back out so different weights stay comparable.
		for _, name := range []string{"marker_tracking", "state_tracking"} {
			if v, ok := sol.GoalValues[name]; ok {
				return v / params["tracking_weight"], nil
			}
		}
		return sol.Objective, nil
	}

	fmt.Printf("tuning %s over %d candidates...\n", studyName, len(weights)*len(efforts))
	best, bestVal, err := gs.Search(context.Background(), evaluate)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("no candidate solved successfully")
	}

	fmt.Printf("\nbest tracking error: %.6g\n", bestVal)
	for name, val := range best {
		fmt.Printf("  %s: %g\n", name, val)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	studyName := args[0]

	build, err := studies.NewRegistry().Get(studyName)
	if err != nil {
		return err
	}

	st := storage.New(resultsDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := viz.NewModel(studyName)
	program := tea.NewProgram(ui)

	params := studies.Params{
		DataDir:       dataDir,
		MeshInterval:  meshInterval,
		MaxIterations: maxIterations,
		Logger:        newLogger(),
		Progress: func(u solver.ProgressUpdate) {
			program.Send(viz.ProgressMsg(u))
		},
	}

	s, err := build(params)
	if err != nil {
		return err
	}

	type result struct {
		sol *solver.Solution
		err error
	}
	resCh := make(chan result, 1)
	go func() {
		sol, err := s.Solve(ctx)
		resCh <- result{sol, err}
		program.Send(viz.DoneMsg{Solution: sol, Err: err})
	}()

	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(viz.Model); ok && m.Canceled() {
		cancel()
	}

	res := <-resCh
	if errors.Is(res.err, context.Canceled) {
		fmt.Println("solve canceled")
		return nil
	}
	if res.err != nil && !errors.Is(res.err, solver.ErrNotConverged) {
		return res.err
	}

	runID, err := st.Save(studyName, s, res.sol)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("objective: %.6g\n", res.sol.Objective)
	return nil
}
