// Package main provides the CLI entrypoint for fuelstat.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/fuelstat/internal/browse"
	"github.com/verte-zerg/fuelstat/internal/cache"
	"github.com/verte-zerg/fuelstat/internal/config"
	"github.com/verte-zerg/fuelstat/internal/insight"
	"github.com/verte-zerg/fuelstat/internal/loader"
	"github.com/verte-zerg/fuelstat/internal/model"
	"github.com/verte-zerg/fuelstat/internal/render"
	"github.com/verte-zerg/fuelstat/internal/report"
	"github.com/verte-zerg/fuelstat/internal/store"
)

const (
	defaultLogLevel  = "warn"
	defaultFormat    = "text"
	defaultDelimiter = ";"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	filterPeriod   string
	filterProducts []string
	filterRegion   string

	reportView        string
	reportFormat      string
	reportVolume      float64
	reportNumerator   string
	reportDenominator string
	reportColor       bool

	importReplace   bool
	importRegions   string
	importDelimiter string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fuelstat",
		Short:         "Fuel price analytics",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runBrowseCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: XDG data dir)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	addFilterFlags(rootCmd)
	addReportOptionFlags(rootCmd)

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&filterPeriod, "period", model.All, "period filter (YYYYS1, YYYYS2 or all)")
	cmd.Flags().StringSliceVar(&filterProducts, "product", nil, "product filter (repeatable; empty means any)")
	cmd.Flags().StringVar(&filterRegion, "region", model.All, "region filter (regional name or all)")
}

func addReportOptionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&reportVolume, "weekly-volume", insight.DefaultWeeklyVolume, "litres per week used for cost projections")
	cmd.Flags().StringVar(&reportNumerator, "parity-numerator", insight.DefaultParityNumerator, "numerator product for the parity ratio")
	cmd.Flags().StringVar(&reportDenominator, "parity-denominator", insight.DefaultParityDenominator, "denominator product for the parity ratio")
}

// setup loads the config file, applies it under the command-line flags and builds the logger.
func setup(cmd *cobra.Command) (*logrus.Logger, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "period", &filterPeriod, fileCfg.Filter.Period)
	applyStringSliceConfig(cmd, "product", &filterProducts, fileCfg.Filter.Products)
	applyStringConfig(cmd, "region", &filterRegion, fileCfg.Filter.Region)
	applyFloatConfig(cmd, "weekly-volume", &reportVolume, fileCfg.Report.WeeklyVolume)
	applyStringConfig(cmd, "parity-numerator", &reportNumerator, fileCfg.Report.ParityNumerator)
	applyStringConfig(cmd, "parity-denominator", &reportDenominator, fileCfg.Report.ParityDenominator)
	applyStringConfig(cmd, "format", &reportFormat, fileCfg.Report.Format)
	applyStringConfig(cmd, "delimiter", &importDelimiter, fileCfg.Loader.Delimiter)
	applyStringConfig(cmd, "regions", &importRegions, fileCfg.Loader.RegionsFile)

	return newLogger(logLevel, cmd.ErrOrStderr())
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(parsed)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log, nil
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(config.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store, log logrus.FieldLogger) {
	if cerr := st.Close(); cerr != nil {
		log.WithError(cerr).Warn("failed to close db")
	}
}

// loadSession reads every stored record and applies the command-line filter.
func loadSession(ctx context.Context, log *logrus.Logger) (*report.Session, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore(st, log)

	records, err := st.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records stored yet\nRun: fuelstat import FILE.csv")
	}
	log.WithField("records", len(records)).Info("loaded records")

	opts := insight.Options{
		WeeklyVolume:      reportVolume,
		ParityNumerator:   strings.ToUpper(strings.TrimSpace(reportNumerator)),
		ParityDenominator: strings.ToUpper(strings.TrimSpace(reportDenominator)),
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	session := report.NewSession(records, cache.New[report.View, any](), opts, log)
	spec, err := session.Catalog().Resolve(model.FilterSpec{
		Period:   filterPeriod,
		Products: filterProducts,
		Region:   filterRegion,
	})
	if err != nil {
		return nil, err
	}
	session.SetFilter(spec)
	return session, nil
}

func validateOptions(opts insight.Options) error {
	if opts.WeeklyVolume <= 0 {
		return fmt.Errorf("--weekly-volume must be > 0")
	}
	if opts.ParityNumerator == "" || opts.ParityDenominator == "" {
		return fmt.Errorf("parity products must not be empty")
	}
	if opts.ParityNumerator == opts.ParityDenominator {
		return fmt.Errorf("parity numerator and denominator must differ")
	}
	return nil
}

func runBrowseCmd(cmd *cobra.Command, _ []string) error {
	log, err := setup(cmd)
	if err != nil {
		return err
	}
	session, err := loadSession(cmd.Context(), log)
	if err != nil {
		return err
	}
	// Logs would tear the alternate screen.
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		log.SetOutput(io.Discard)
	}
	return browse.Run(session, log)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import price survey CSV files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importReplace, "replace", false, "remove previously imported records first")
	cmd.Flags().StringVar(&importRegions, "regions", "", "neighbourhood to region YAML mapping (default: XDG config dir)")
	cmd.Flags().StringVar(&importDelimiter, "delimiter", defaultDelimiter, "CSV field delimiter")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	log, err := setup(cmd)
	if err != nil {
		return err
	}
	delimiter, err := config.ParseDelimiter(importDelimiter)
	if err != nil {
		return fmt.Errorf("invalid --delimiter: %w", err)
	}
	regionsPath := importRegions
	if regionsPath == "" {
		regionsPath = config.DefaultRegionsPath()
	}
	regions, err := loader.LoadRegionMap(config.ExpandHome(regionsPath))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"path": regionsPath, "neighbourhoods": regions.Len()}).Debug("loaded region map")

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st, log)

	ctx := cmd.Context()
	if importReplace {
		if err := st.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	total := 0
	for _, path := range args {
		n, skipped, err := importFile(ctx, st, path, loader.Options{Delimiter: delimiter, Regions: regions, Log: log})
		if err != nil {
			return err
		}
		total += n
		if _, err := fmt.Fprintf(out, "%s: imported %s records, skipped %s rows\n",
			path, humanize.Comma(int64(n)), humanize.Comma(int64(skipped))); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	stored, err := st.CountRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	log.WithFields(logrus.Fields{"imported": total, "stored": stored}).Info("import finished")
	if _, err := fmt.Fprintf(out, "%s records stored\n", humanize.Comma(int64(stored))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func importFile(ctx context.Context, st *store.Store, path string, opts loader.Options) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()

	res, err := loader.Load(f, opts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load %s: %w", path, err)
	}
	source := path
	if abs, err := filepath.Abs(path); err == nil {
		source = abs
	}
	if _, err := st.InsertImport(ctx, store.Import{Source: source, Skipped: len(res.Skipped)}, res.Records); err != nil {
		return 0, 0, fmt.Errorf("failed to store %s: %w", path, err)
	}
	return len(res.Records), len(res.Skipped), nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print report views",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().StringVar(&reportView, "view", "", "view to print (overview, distribution, temporal, regional, correlation, insights; default: all)")
	cmd.Flags().StringVar(&reportFormat, "format", defaultFormat, "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored text output")
	addFilterFlags(cmd)
	addReportOptionFlags(cmd)
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	log, err := setup(cmd)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	views := report.Views()
	if strings.TrimSpace(reportView) != "" {
		v, err := report.ParseView(reportView)
		if err != nil {
			return err
		}
		views = []report.View{v}
	}
	session, err := loadSession(cmd.Context(), log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	docs := make([]render.Document, 0, len(views))
	for _, v := range views {
		docs = append(docs, render.Document{View: v, Filter: session.Filter(), Result: session.Build(v)})
	}
	switch {
	case format == render.FormatText:
		opts := render.Options{Color: render.ShouldUseColor(out, reportColor)}
		for i, doc := range docs {
			if i > 0 {
				if _, err := fmt.Fprintln(out); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			if err := render.Write(out, format, doc, opts); err != nil {
				return err
			}
		}
	case len(docs) == 1:
		if err := render.Write(out, format, docs[0], render.Options{}); err != nil {
			return err
		}
	case format == render.FormatJSON:
		if err := render.JSON(out, docs); err != nil {
			return err
		}
	default:
		if err := render.YAML(out, docs); err != nil {
			return err
		}
	}
	st := session.Cache().Stats()
	log.WithFields(logrus.Fields{"hits": st.Hits, "misses": st.Misses}).Debug("view cache")
	return nil
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List stored periods, products, regions and imports",
		Args:  cobra.NoArgs,
		RunE:  runCatalogCmd,
	}
	cmd.Flags().StringVar(&reportFormat, "format", defaultFormat, "output format (text, json, yaml)")
	return cmd
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	log, err := setup(cmd)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(reportFormat)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st, log)

	ctx := cmd.Context()
	records, err := st.ListRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	imports, err := st.ListImports(ctx)
	if err != nil {
		return fmt.Errorf("failed to load imports: %w", err)
	}
	cat := report.BuildCatalog(records)

	out := cmd.OutOrStdout()
	switch format {
	case render.FormatJSON:
		return render.JSON(out, cat)
	case render.FormatYAML:
		return render.YAML(out, cat)
	}
	text, err := render.String(cat, render.Options{})
	if err != nil {
		return err
	}
	lines := []string{text, "", fmt.Sprintf("Imports: %d (%s records)", len(imports), humanize.Comma(int64(len(records))))}
	for _, imp := range imports {
		lines = append(lines, fmt.Sprintf("  %s  %s rows, %s skipped, %s",
			imp.Source, humanize.Comma(int64(imp.Rows)), humanize.Comma(int64(imp.Skipped)), humanize.Time(imp.ImportedAt)))
	}
	if _, err := fmt.Fprintln(out, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag == nil || flag.Changed {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag == nil || flag.Changed {
		return
	}
	*target = append([]string(nil), value...)
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag == nil || flag.Changed {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# fuelstat configuration
# Uncomment a value to enable it. CLI flags override config values.

[filter]
# period = "all"          # YYYYS1, YYYYS2 or all
# products = []           # e.g. ["GASOLINA", "ETANOL"]; empty means any
# region = "all"          # Regional name or all

[report]
# weekly-volume = %.1f     # Litres per week used for cost projections
# parity-numerator = %q
# parity-denominator = %q
# format = %q           # text, json or yaml

[loader]
# delimiter = %q           # Single character, or tab/comma/semicolon
# regions-file = %q

[log]
# level = %q
`,
		insight.DefaultWeeklyVolume,
		insight.DefaultParityNumerator,
		insight.DefaultParityDenominator,
		defaultFormat,
		defaultDelimiter,
		config.DefaultRegionsPath(),
		defaultLogLevel,
	)
}
