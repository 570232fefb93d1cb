package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/san-kum/finsolve/internal/config"
	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/display"
	"github.com/san-kum/finsolve/internal/finance"
	"github.com/san-kum/finsolve/internal/formula"
	"github.com/san-kum/finsolve/internal/storage"
	"github.com/san-kum/finsolve/internal/tui"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	// solve
	preset    string
	noRound   bool
	precision int
	check     bool
	noHistory bool
	guesses   int
	workers   int
	exportOut string
	// plot
	plotLo     float64
	plotHi     float64
	plotWidth  int
	plotHeight int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "finsolve",
		Short:        "solve financial formulas for the one missing variable",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "history directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")

	solveCmd := &cobra.Command{
		Use:   "solve [family] [name=value...]",
		Short: "solve a family for the variable left out",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&preset, "preset", "", "start from a preset's values")
	solveCmd.Flags().BoolVar(&noRound, "no-round", false, "print the unrounded value")
	solveCmd.Flags().IntVar(&precision, "precision", config.DefaultPrecision, "decimal places")
	solveCmd.Flags().BoolVar(&check, "check", false, "re-evaluate the equation at the solution")
	solveCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the solve")
	solveCmd.Flags().IntVar(&guesses, "guesses", config.DefaultGuesses, "starting guesses for numeric solves")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "parallel scan workers (0 = one per cpu)")

	familiesCmd := &cobra.Command{
		Use:   "families",
		Short: "list formula families",
		RunE:  listFamilies,
	}

	deriveCmd := &cobra.Command{
		Use:   "derive [family]",
		Short: "show how each variable is solved",
		Args:  cobra.ExactArgs(1),
		RunE:  showDerivation,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [family] [var] [name=value...]",
		Short: "plot the equation residual against one variable",
		Args:  cobra.MinimumNArgs(2),
		RunE:  plotResidual,
	}
	plotCmd.Flags().StringVar(&preset, "preset", "", "start from a preset's values")
	plotCmd.Flags().Float64Var(&plotLo, "lo", math.NaN(), "range start (default: scan domain or [0, 1))")
	plotCmd.Flags().Float64Var(&plotHi, "hi", math.NaN(), "range end")
	plotCmd.Flags().IntVar(&plotWidth, "width", 60, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 12, "plot height")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "list recorded solves",
		RunE:  listHistory,
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "show a recorded solve",
		Args:  cobra.ExactArgs(1),
		RunE:  showRecord,
	}

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "export a recorded solve as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRecord,
	}
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "interactive calculator",
		RunE:  runInteractive,
	}

	rootCmd.AddCommand(solveCmd, familiesCmd, deriveCmd, presetsCmd, plotCmd, historyCmd, showCmd, exportCmd, interactiveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and builds the
// logger and engine.
func setup(cmd *cobra.Command) (*config.Config, *logrus.Logger, *finance.Engine, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || configFile == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Lookup("no-round") != nil && flags.Changed("no-round") {
		cfg.Round = !noRound
	}
	if flags.Lookup("precision") != nil && flags.Changed("precision") {
		cfg.Precision = precision
	}
	if flags.Lookup("guesses") != nil && flags.Changed("guesses") {
		cfg.Scan.Guesses = guesses
	}
	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Scan.Workers = workers
	}
	if flags.Lookup("no-history") != nil && flags.Changed("no-history") {
		cfg.History = !noHistory
	}

	log, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := append(cfg.GetDispatchOptions(), dispatch.WithLogger(log))
	engine := finance.NewEngine(finance.NewRegistry(), formula.NewCache(log), opts...)
	return cfg, log, engine, nil
}

func setupLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// parseAssignments reads name=value pairs on top of base.
func parseAssignments(base map[string]float64, args []string) (map[string]float64, error) {
	known := make(map[string]float64, len(base)+len(args))
	for k, v := range base {
		known[k] = v
	}
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", arg)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		known[name] = v
	}
	return known, nil
}

func presetValues(cfg *config.Config, family string) (map[string]float64, error) {
	if preset == "" {
		return nil, nil
	}
	values := cfg.GetPreset(family, preset)
	if values == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, cfg.ListPresets(family))
	}
	return values, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, log, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	family := args[0]

	base, err := presetValues(cfg, family)
	if err != nil {
		return err
	}
	known, err := parseAssignments(base, args[1:])
	if err != nil {
		return err
	}

	res, err := engine.Solve(context.Background(), family, known)
	if err != nil {
		return err
	}

	format := formatter(cfg)
	if !cfg.Round {
		format = display.NewFormatter(language.Make(cfg.Locale), 10)
	}
	fmt.Println(format.Result(res))
	if !res.Calculated() {
		return nil
	}

	rec := storage.NewRecord(res, known)
	if check {
		r, err := checkResult(engine, res, known)
		if err != nil {
			return err
		}
		rec.Residual = &r
		fmt.Println(display.Subtle.Render(fmt.Sprintf("residual at solution: %.3e", r)))
	}

	if cfg.History {
		id, err := storage.New(cfg.DataDir).Save(rec, res.Scan)
		if err != nil {
			log.WithError(err).Warn("failed to record solve")
		} else {
			log.WithField("id", id).Info("solve recorded")
		}
	}
	return nil
}

func checkResult(engine *finance.Engine, res dispatch.Result, known map[string]float64) (float64, error) {
	f, err := engine.Registry().GetFamily(res.Family)
	if err != nil {
		return 0, fmt.Errorf("--check needs a base family: %w", err)
	}
	values := make(map[string]float64, len(known)+1)
	for k, v := range known {
		values[k] = v
	}
	values[res.Var] = res.Value
	return formula.Check(f, values)
}

func listFamilies(cmd *cobra.Command, args []string) error {
	reg := finance.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVARS\tDESCRIPTION")
	for _, name := range reg.ListFamilies() {
		vars, err := reg.Vars(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, strings.Join(vars, " "), reg.Describe(name))
	}
	return w.Flush()
}

func showDerivation(cmd *cobra.Command, args []string) error {
	_, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := engine.Registry().GetFamily(args[0])
	if err != nil {
		return err
	}
	set, err := engine.Cache().Load(f)
	if err != nil {
		return err
	}
	fmt.Print(display.Derivation(set))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	cfg, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}

	families := engine.Registry().ListFamilies()
	if len(args) == 1 {
		families = []string{args[0]}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tPRESET\tVALUES")
	for _, family := range families {
		for _, name := range cfg.ListPresets(family) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", family, name, formatValues(cfg.GetPreset(family, name)))
		}
	}
	return w.Flush()
}

func plotResidual(cmd *cobra.Command, args []string) error {
	cfg, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	family, name := args[0], args[1]

	f, err := engine.Registry().GetFamily(family)
	if err != nil {
		return err
	}
	base, err := presetValues(cfg, family)
	if err != nil {
		return err
	}
	known, err := parseAssignments(base, args[2:])
	if err != nil {
		return err
	}
	delete(known, name)

	set, err := engine.Cache().Load(f)
	if err != nil {
		return err
	}
	sv, ok := set.Solver(name)
	if !ok {
		return fmt.Errorf("%w: %s has no variable %q", dispatch.ErrUnknownVariable, family, name)
	}

	argv := make([]float64, len(sv.Args))
	for i, a := range sv.Args {
		v, ok := known[a]
		if !ok {
			return fmt.Errorf("plot needs a value for %s", a)
		}
		argv[i] = v
	}
	residual, _, err := sv.Bind(argv)
	if err != nil {
		return err
	}

	lo, hi := 0.0, 1.0
	if sv.Kind == formula.Numeric {
		lo, hi = sv.Domain.Lo, sv.Domain.Hi
	}
	if !math.IsNaN(plotLo) {
		lo = plotLo
	}
	if !math.IsNaN(plotHi) {
		hi = plotHi
	}

	caption := fmt.Sprintf("%s residual vs %s on [%g, %g)", family, name, lo, hi)
	out, err := display.Plot(residual, lo, hi, plotWidth*2, plotWidth, plotHeight, caption)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	records, err := storage.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no solves recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFAMILY\tTIME\tVAR\tVALUE\tMETHOD")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%s\n",
			rec.ID,
			rec.Family,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Label,
			rec.Value,
			rec.Method,
		)
	}
	return w.Flush()
}

func showRecord(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	rec, err := st.Load(args[0])
	if err != nil {
		return err
	}

	format := formatter(cfg)
	fmt.Println(display.Title.Render(rec.Family) + "  " + display.Subtle.Render(rec.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Println(display.Label.Render("given  ") + formatValues(rec.Known))
	fmt.Println(display.Label.Render(rec.Label+" =") + " " + display.Value.Render(format.Number(rec.Value)) + "  " + display.Subtle.Render(rec.Method))
	if rec.Residual != nil {
		fmt.Println(display.Label.Render("residual ") + fmt.Sprintf("%.3e", *rec.Residual))
	}
	if len(rec.Roots) == 0 {
		return nil
	}

	fmt.Println(display.Label.Render("roots  ") + fmt.Sprint(rec.Roots))
	trace, err := st.LoadTrace(rec.ID)
	if err != nil {
		return err
	}
	roots := make([]float64, 0, len(trace))
	for _, p := range trace {
		if p.Converged {
			roots = append(roots, p.Root)
		}
	}
	fmt.Printf("%d of %d guesses converged\n", len(roots), len(trace))
	if len(roots) > 1 {
		out, err := display.PlotSeries(roots, 60, 8, "root reached per converged guess")
		if err != nil {
			return err
		}
		fmt.Println(out)
	}
	return nil
}

func exportRecord(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := setup(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if exportOut == "" {
		return st.Export(args[0], os.Stdout)
	}

	file, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := st.Export(args[0], file); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], exportOut)
	return nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	return tui.RunInteractive(engine, cfg, formatter(cfg))
}

func formatter(cfg *config.Config) *display.Formatter {
	return display.NewFormatter(language.Make(cfg.Locale), cfg.Precision)
}

func formatValues(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, values[name])
	}
	return strings.Join(parts, " ")
}
