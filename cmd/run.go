package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/devs/config"
	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/monitoring"
	"github.com/sarchlab/devs/tracing"
)

type runOptions struct {
	scenario    string
	logLevel    string
	maxSteps    uint64
	horizon     float64
	traceCSV    string
	traceSQLite string
	monitor     bool
	monitorPort int
	openBrowser bool
	plot        bool
	noColor     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and print its trace.",
	Long: "Run a scenario and print the outputs that reach the outside world. " +
		"Without --scenario, the press and drill pipeline is simulated.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSimulation(cmd.OutOrStdout(), runOpts, cmd.Flags().Changed)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runOpts.scenario, "scenario", "", "YAML scenario file")
	f.StringVar(&runOpts.logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	f.Uint64Var(&runOpts.maxSteps, "max-steps", 0,
		"Maximum number of steps, 0 for no limit")
	f.Float64Var(&runOpts.horizon, "horizon", 0,
		"Stop before the first event later than this time, 0 for no limit")
	f.StringVar(&runOpts.traceCSV, "trace-csv", "",
		"Write the event trace to this CSV file")
	f.StringVar(&runOpts.traceSQLite, "trace-sqlite", "",
		"Write the event trace to this SQLite database")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"Serve the monitoring API while the simulation runs")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, random if not set")
	f.BoolVar(&runOpts.openBrowser, "open-browser", false,
		"Open the monitoring server in a browser")
	f.BoolVar(&runOpts.plot, "plot", false,
		"Plot the number of outputs over time")
	f.BoolVar(&runOpts.noColor, "no-color", false, "Disable colored output")
}

// runSimulation runs one scenario. changed reports which flags the user set
// explicitly; those take precedence over the environment and the scenario.
func runSimulation(
	out io.Writer,
	opts runOptions,
	changed func(name string) bool,
) error {
	if err := config.LoadEnv(); err != nil {
		return err
	}

	env, err := config.ReadEnv()
	if err != nil {
		return err
	}

	if err := setLogLevel(opts.logLevel, env, changed); err != nil {
		return err
	}

	scenario, err := loadScenario(opts, env, changed)
	if err != nil {
		return err
	}

	sim, err := config.Build(scenario)
	if err != nil {
		return err
	}

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		sim.AcceptHook(devs.NewEventLogger[string](
			logrus.WithField("component", "devs"), sim))
	}

	closeTraces, err := attachTraceWriters(sim, opts, env.TraceDir)
	if err != nil {
		return err
	}
	defer closeTraces()

	if opts.monitor {
		stop := startMonitor(sim, opts, scenario.Limits.MaxSteps)
		defer stop()
	}

	trace, simErr := sim.Simulate()

	logrus.WithFields(logrus.Fields{
		"steps":   sim.Steps(),
		"time":    sim.CurrentTime().String(),
		"outputs": len(trace),
	}).Info("simulation finished")

	printTrace(out, trace, opts.noColor)

	if opts.plot {
		plotTrace(out, trace)
	}

	return simErr
}

func setLogLevel(
	flagLevel string,
	env config.EnvOverrides,
	changed func(string) bool,
) error {
	if env.LogLevel != nil && !changed("log-level") {
		logrus.SetLevel(*env.LogLevel)
		return nil
	}

	level, err := logrus.ParseLevel(flagLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLevel, err)
	}

	logrus.SetLevel(level)

	return nil
}

func loadScenario(
	opts runOptions,
	env config.EnvOverrides,
	changed func(string) bool,
) (config.Scenario, error) {
	scenario := config.DefaultScenario()

	if opts.scenario != "" {
		var err error

		scenario, err = config.LoadScenario(opts.scenario)
		if err != nil {
			return config.Scenario{}, err
		}
	}

	env.Apply(&scenario)

	if changed("max-steps") {
		scenario.Limits.MaxSteps = opts.maxSteps
	}

	if changed("horizon") {
		scenario.Limits.Horizon = opts.horizon
	}

	return scenario, nil
}

// attachTraceWriters sets up the requested trace files and returns a
// function that flushes and closes them.
func attachTraceWriters(
	sim *devs.Simulator[string],
	opts runOptions,
	dir string,
) (func(), error) {
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if opts.traceCSV != "" {
		path := tracePath(dir, opts.traceCSV, ".csv")
		if err := mustNotExist(path); err != nil {
			return nil, err
		}

		w := tracing.NewCSVTraceWriter(path)
		w.Init()
		tracing.CollectTrace[string](sim, w, nil)
		closers = append(closers, w.Close)
	}

	if opts.traceSQLite != "" {
		path := tracePath(dir, opts.traceSQLite, ".sqlite3")
		if err := mustNotExist(path); err != nil {
			closeAll()
			return nil, err
		}

		w := tracing.NewSQLiteTraceWriter(path)
		w.Init()
		tracing.CollectTrace[string](sim, w, nil)
		closers = append(closers, func() {
			w.Flush()

			if err := w.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close trace database")
			}

			logrus.WithField("file", w.Filename()).Info("trace written")
		})
	}

	return closeAll, nil
}

// tracePath places relative paths in dir and adds ext when missing.
func tracePath(dir, path, ext string) string {
	if dir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	if filepath.Ext(path) != ext {
		path += ext
	}

	return path
}

func mustNotExist(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("trace file %s already exists", path)
	}

	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func startMonitor(
	sim *devs.Simulator[string],
	opts runOptions,
	maxSteps uint64,
) func() {
	m := monitoring.NewMonitor[string]().WithPortNumber(opts.monitorPort)
	m.RegisterSimulation(sim)

	records := tracing.NewMemoryTraceWriter()
	tracing.CollectTrace[string](sim, records, nil)
	m.RegisterRecordSource(records)

	bar := m.CreateProgressBar("steps", maxSteps)
	sim.AcceptHook(monitoring.NewStepProgressHook(bar))

	url := m.StartServer()
	logrus.WithField("url", url).Info("monitoring server started")

	if opts.openBrowser {
		if err := m.OpenBrowser(); err != nil {
			logrus.WithError(err).Warn("failed to open browser")
		}
	}

	return func() {
		m.CompleteProgressBar(bar)

		if err := m.StopServer(); err != nil {
			logrus.WithError(err).Warn("failed to stop monitoring server")
		}
	}
}

func printTrace(out io.Writer, trace devs.Trace[string], noColor bool) {
	timeColor := color.New(color.FgCyan)
	if noColor {
		timeColor.DisableColor()
	}

	for _, e := range trace {
		fmt.Fprintf(out, "%s - %s\n",
			timeColor.Sprint(devs.FormatTime(e.Time)), e.Output)
	}
}

// plotTrace draws the cumulative number of outputs, sampled at every output.
func plotTrace(out io.Writer, trace devs.Trace[string]) {
	if len(trace) == 0 {
		return
	}

	data := make([]float64, len(trace))
	for i := range trace {
		data[i] = float64(i + 1)
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf(
			"outputs until t=%s", devs.FormatTime(trace[len(trace)-1].Time))),
	)

	fmt.Fprintln(out, graph)
}
