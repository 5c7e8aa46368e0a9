package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"astergen/internal/app"
	"astergen/internal/blob"
	"astergen/internal/runlog"
	"astergen/internal/validation"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
	history   string
	dsn       string
}

type cli struct {
	outW   io.Writer
	errW   io.Writer
	getenv func(string) string
	flags  globalFlags
}

func newRootCmd(outW, errW io.Writer, getenv func(string) string) *cobra.Command {
	c := &cli{outW: outW, errW: errW, getenv: getenv}
	root := &cobra.Command{
		Use:   "astergen",
		Short: "Translate structural models into Code_Aster jobs",
		Long: `astergen reads an HCL model description (mesh, materials, elements,
constraints, loadings, objectives and analyses) and writes the command file,
export file and mesh file of a Code_Aster job to the configured artifact store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.config, "config", "c", "", "YAML configuration file")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&c.flags.logFormat, "log-format", "", "log format: auto|text|json")
	pf.StringVar(&c.flags.history, "history-driver", "", "run history driver: sqlite|postgres|memory")
	pf.StringVar(&c.flags.dsn, "history-dsn", "", "run history database path or connection string")

	root.AddCommand(
		c.translateCmd(),
		c.validateCmd(),
		c.watchCmd(),
		c.historyCmd(),
	)
	return root
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.ExactArgs(n)(cmd, args))
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.MinimumNArgs(n)(cmd, args))
	}
}

// config loads the configuration file and environment, then applies the
// flags that were set on the command line.
func (c *cli) config(cmd *cobra.Command, apply func(*app.Config)) (app.Config, error) {
	cfg, err := app.LoadConfig(c.flags.config, c.getenv)
	if err != nil {
		return cfg, usageError(err)
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = c.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = c.flags.logFormat
	}
	if flags.Changed("history-driver") {
		cfg.History.Driver = runlog.Driver(c.flags.history)
	}
	if flags.Changed("history-dsn") {
		cfg.History.DSN = c.flags.dsn
	}
	if apply != nil {
		apply(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, usageError(err)
	}
	return cfg, nil
}

func (c *cli) open(ctx context.Context, cfg app.Config) (*app.Translator, error) {
	tr, err := app.Open(ctx, cfg, app.NewLogger(cfg.Log, c.errW), version)
	if err != nil {
		var cfgErr *app.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, usageError(err)
		}
		return nil, &ExitError{Code: exitFailure, Err: err}
	}
	return tr, nil
}

type outputFlags struct {
	prefix  string
	blob    string
	fsRoot  string
	graphs  bool
	debug   bool
	lenient bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.prefix, "prefix", "", "artifact key prefix")
	f.StringVar(&o.blob, "blob-driver", "", "artifact store driver: fs|s3|memory")
	f.StringVarP(&o.fsRoot, "out", "o", "", "root directory of the fs artifact store")
	f.BoolVar(&o.graphs, "graphs", false, "also write one graphviz file per analysis")
	f.BoolVar(&o.debug, "debug", false, "raise solver verbosity and check small meshes")
	f.BoolVar(&o.lenient, "lenient", false, "translate models with blocking validation violations")
}

func (o *outputFlags) apply(cmd *cobra.Command, cfg *app.Config) {
	f := cmd.Flags()
	if f.Changed("prefix") {
		cfg.Output.Prefix = o.prefix
	}
	if f.Changed("blob-driver") {
		cfg.Blob.Driver = blob.Driver(o.blob)
	}
	if f.Changed("out") {
		cfg.Blob.FSRoot = o.fsRoot
	}
	if f.Changed("graphs") {
		cfg.Output.Graphs = o.graphs
	}
	if f.Changed("debug") {
		cfg.Output.Debug = o.debug
	}
	if f.Changed("lenient") {
		cfg.Model.Strict = !o.lenient
	}
}

func (c *cli) translateCmd() *cobra.Command {
	var (
		out    outputFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "translate <model.hcl>...",
		Short: "Translate models and publish their job files",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, func(cfg *app.Config) { out.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			tr, err := c.open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			var failed int
			for _, path := range args {
				res, err := tr.Translate(cmd.Context(), path)
				if err != nil {
					failed++
				}
				if asJSON {
					if err := json.NewEncoder(c.outW).Encode(res.Run); err != nil {
						return err
					}
					continue
				}
				printRun(c.outW, res.Run)
			}
			if failed > 0 {
				return &ExitError{Code: exitFailure, Err: fmt.Errorf("%d of %d translations failed", failed, len(args))}
			}
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print run records as JSON lines")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var lenient bool
	cmd := &cobra.Command{
		Use:   "validate <model.hcl>",
		Short: "Check a model without publishing anything",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, func(cfg *app.Config) {
				if lenient {
					cfg.Model.Strict = false
				}
				cfg.Blob.Driver = blob.DriverMemory
				cfg.History.Driver = runlog.DriverMemory
			})
			if err != nil {
				return err
			}
			tr, err := c.open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()

			res, err := tr.Check(cmd.Context(), args[0])
			for _, v := range res.Validation.Violations {
				fmt.Fprintf(c.outW, "%-5s %-22s %-16s %s\n", v.Severity, v.Rule, v.Entity, v.Message)
			}
			for _, n := range res.Audit.Warnings {
				fmt.Fprintf(c.outW, "%-5s %-22s %-16s %s\n", "warn", "translation", n.Ref, n.Message)
			}
			if err != nil {
				return &ExitError{Code: exitFailure, Err: err}
			}
			fmt.Fprintf(c.outW, "%s: ok (%d analyses, %d blocking, %d warnings)\n",
				res.Run.Model, res.Run.Analyses, res.Validation.Count(validation.SeverityBlock), res.Validation.Count(validation.SeverityWarn)+len(res.Audit.Warnings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "do not fail on blocking validation violations")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var (
		out      outputFlags
		debounce time.Duration
		listen   string
	)
	cmd := &cobra.Command{
		Use:   "watch <model.hcl>",
		Short: "Translate a model again every time it changes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, func(cfg *app.Config) {
				out.apply(cmd, cfg)
				if cmd.Flags().Changed("metrics-listen") {
					cfg.Metrics.Listen = listen
				}
			})
			if err != nil {
				return err
			}
			tr, err := c.open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = tr.Close() }()
			return tr.Watch(cmd.Context(), args[0], app.WatchOptions{
				Debounce: debounce,
				OnResult: func(res app.Result, _ error) { printRun(c.outW, res.Run) },
			})
		},
	}
	out.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", app.DefaultDebounce, "quiet period before translating a changed model")
	cmd.Flags().StringVar(&listen, "metrics-listen", "", "serve /metrics on this address")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var (
		model     string
		limit     int
		asJSON    bool
		artifacts bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.MaximumNArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, nil)
			if err != nil {
				return err
			}
			store, err := runlog.Open(cmd.Context(), cfg.History)
			if err != nil {
				return &ExitError{Code: exitFailure, Err: err}
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return &ExitError{Code: exitFailure, Err: err}
				}
				enc := json.NewEncoder(c.outW)
				enc.SetIndent("", "  ")
				if !artifacts {
					return enc.Encode(run)
				}
				states, err := c.inspect(cmd.Context(), cfg.Blob, run)
				if err != nil {
					return &ExitError{Code: exitFailure, Err: err}
				}
				return enc.Encode(struct {
					Run       runlog.Run           `json:"run"`
					Artifacts []blob.ArtifactState `json:"artifacts"`
				}{run, states})
			}
			runs, err := store.List(cmd.Context(), runlog.Filter{Model: model, Limit: limit})
			if err != nil {
				return &ExitError{Code: exitFailure, Err: err}
			}
			if asJSON {
				enc := json.NewEncoder(c.outW)
				for _, run := range runs {
					if err := enc.Encode(run); err != nil {
						return err
					}
				}
				return nil
			}
			tw := tabwriter.NewWriter(c.outW, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODEL\tSTATUS\tSTARTED\tDURATION\tANALYSES\tWARNINGS")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					run.ID, run.Model, run.Status, run.StartedAt.Format(time.RFC3339), run.Duration().Round(time.Millisecond), run.Analyses, run.Warnings)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "only list runs of this model")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs; 0 lists all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print run records as JSON lines")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "with a run id, report whether its artifacts are still published")
	return cmd
}

func (c *cli) inspect(ctx context.Context, cfg blob.Config, run runlog.Run) ([]blob.ArtifactState, error) {
	store, err := blob.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return blob.Inspect(ctx, store, run.ID, run.Artifacts)
}

func printRun(w io.Writer, run runlog.Run) {
	if run.Status == runlog.StatusSucceeded {
		fmt.Fprintf(w, "%s: %s %s (%d analyses, %d warnings, %d artifacts)\n",
			run.ID, run.Model, run.Status, run.Analyses, run.Warnings, len(run.Artifacts))
		return
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", run.ID, run.Model, run.Status, run.Error)
}
