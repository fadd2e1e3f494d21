package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"anvil-optimizer/internal/anvil"
	"anvil-optimizer/internal/batch"
	"anvil-optimizer/internal/catalog"
	"anvil-optimizer/internal/config"
)

const usage = `Usage: anvil-optimizer [flags] <item> <enchantment[:level]>...
       anvil-optimizer [flags] -batch <jobs.json>

Positional arguments:
  item         Item id (sword, pickaxe, ...) or "book" for a combined book
  enchantment  Enchantment id, optionally with a level; the level defaults to the maximum

Flags:
`

type options struct {
	jsonOut           bool
	verbose           bool
	configPath        string
	catalogPath       string
	optimize          string
	allowIncompatible bool
	batchPath         string
	args              []string
}

func main() {
	var opts options
	flag.BoolVar(&opts.jsonOut, "json", false, "Output results as JSON")
	flag.BoolVar(&opts.verbose, "verbose", false, "Log solver progress to stderr")
	flag.StringVar(&opts.configPath, "config", "", "Path to YAML config (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	flag.StringVar(&opts.catalogPath, "catalog", "", "Path to a catalog JSON (default: bundled catalog)")
	flag.StringVar(&opts.optimize, "optimize", "", "Objective: experience or workPenalty (default from config)")
	flag.BoolVar(&opts.allowIncompatible, "allow-incompatible", false, "Allow mutually incompatible enchantments")
	flag.StringVar(&opts.batchPath, "batch", "", "Solve every job in a JSON file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.args = flag.Args()

	if opts.batchPath == "" && len(opts.args) < 2 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(config.ResolvePath(opts.configPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.SlogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cat, err := loadCatalog(opts.catalogPath, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}

	obj := cfg.Objective()
	if opts.optimize != "" {
		if obj, err = anvil.ParseObjective(opts.optimize); err != nil {
			return err
		}
	}

	solver := anvil.NewSolver(cfg.SolverConfig(), logger)
	runner := batch.NewRunner(cat, solver, cfg.Workers, logger)

	if opts.batchPath != "" {
		return runBatch(ctx, runner, opts, obj, out)
	}
	return runSingle(runner, opts, obj, out)
}

func loadCatalog(flagPath, cfgPath string) (*catalog.Catalog, error) {
	path := flagPath
	if path == "" {
		path = cfgPath
	}
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

func runSingle(runner *batch.Runner, opts options, obj anvil.Objective, out io.Writer) error {
	job := batch.Job{
		ID:                "cli",
		Item:              opts.args[0],
		AllowIncompatible: opts.allowIncompatible,
		OptimizeFor:       obj,
	}
	for _, raw := range opts.args[1:] {
		sel, err := catalog.ParseSelection(raw)
		if err != nil {
			return err
		}
		job.Selections = append(job.Selections, sel)
	}

	r := runner.RunOne(job)
	if r.Err != nil {
		return r.Err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Result)
	}
	fmt.Fprint(out, anvil.FormatResult(r.Plan))
	return nil
}

func runBatch(ctx context.Context, runner *batch.Runner, opts options, obj anvil.Objective, out io.Writer) error {
	jobs, err := batch.LoadJobs(opts.batchPath, obj)
	if err != nil {
		return err
	}
	if opts.allowIncompatible {
		for i := range jobs {
			jobs[i].AllowIncompatible = true
		}
	}
	slog.Info("batch loaded", "jobs", len(jobs))

	results, err := runner.Run(ctx, jobs)
	if err != nil {
		return err
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printTable(out, results)
	return nil
}

func printTable(out io.Writer, results []batch.JobResult) {
	fmt.Fprintf(out, "%-24s %-12s %8s %8s %6s %8s\n", "Job", "Item", "Levels", "XP", "Work", "Time")
	fmt.Fprintf(out, "%-24s %-12s %8s %8s %6s %8s\n", "------------------------", "------------", "--------", "--------", "------", "--------")
	var totalMs int64
	for _, r := range results {
		totalMs += r.TimeMs
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "%-24s %-12s %s\n", r.ID, r.Item, r.Error)
		case !r.Plan.Feasible:
			fmt.Fprintf(out, "%-24s %-12s %8s %8s %6s %7dms\n", r.ID, r.Item, "-", "-", "-", r.TimeMs)
		default:
			fmt.Fprintf(out, "%-24s %-12s %8d %8d %6d %7dms\n",
				r.ID, r.Item, r.Plan.TotalLevels, r.Plan.TotalExperience, r.Plan.Final.Work, r.TimeMs)
		}
	}
	fmt.Fprintf(out, "%-24s %-12s %8s %8s %6s %8s\n", "------------------------", "------------", "--------", "--------", "------", "--------")
	fmt.Fprintf(out, "%-24s %-12s %8s %8s %6s %7dms\n", "TOTAL", "", "", "", "", totalMs)
}
