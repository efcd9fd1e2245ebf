package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/corelgott/dotless/pkg/build"
	"github.com/corelgott/dotless/pkg/sarif"
	"github.com/corelgott/dotless/pkg/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	buildFlags         engineFlags
	buildIncremental   bool
	buildDB            string
	buildWorkers       int
	buildOutputDir     string
	buildIncludeHidden bool
	buildFormat        string
)

var buildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "Compile every style sheet below a directory",
	Long: `Compile every .less file below a directory in parallel, writing
<name>.css next to each source (or below --output-dir).

Files whose name starts with "_" are partials: they are only compiled through
imports. .gitignore in the root directory is honored, and hidden files are
skipped unless --include-hidden is given.

With --incremental the content of every source and its imports is recorded
in a SQLite database, and unchanged files are skipped on the next run.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildFlags.register(buildCmd.Flags(), true)
	buildCmd.Flags().BoolVar(&buildIncremental, "incremental", false, "Skip files unchanged since the last build")
	buildCmd.Flags().StringVar(&buildDB, "db", "", "Build database for --incremental (default: <dir>/.dotless/builds.db)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "Parallel compilers (default: number of CPUs)")
	buildCmd.Flags().StringVar(&buildOutputDir, "output-dir", "", "Write outputs below this directory, mirroring the sources")
	buildCmd.Flags().BoolVar(&buildIncludeHidden, "include-hidden", false, "Also build hidden files and directories")
	buildCmd.Flags().StringVar(&buildFormat, "format", "text", "Report format: text, sarif")
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := args[0]
	if buildFormat != "text" && buildFormat != "sarif" {
		return fmt.Errorf("invalid --format %q: want text or sarif", buildFormat)
	}
	cfg, err := loadProjectConfig(root)
	if err != nil {
		return err
	}
	engineCfg, plugins, sourceMap, err := buildFlags.resolve(cfg)
	if err != nil {
		return err
	}

	bc := build.Config{
		Root:          root,
		Extensions:    cfg.Build.Extensions,
		IncludeHidden: cfg.Build.IncludeHidden || buildIncludeHidden,
		OutputDir:     cfg.Build.OutputDir,
		Workers:       cfg.Build.Workers,
		SourceMap:     sourceMap,
		Incremental:   buildIncremental,
		Engine:        engineCfg,
		Plugins:       plugins,
		Logger:        newLogger(cmd),
	}
	if buildOutputDir != "" {
		bc.OutputDir = buildOutputDir
	}
	if buildWorkers > 0 {
		bc.Workers = buildWorkers
	}

	var st store.Store
	if buildIncremental {
		dbPath := buildDB
		if dbPath == "" {
			dbPath = filepath.Join(root, ".dotless", "builds.db")
		}
		if dbPath != store.MemoryPath {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("creating build database directory: %w", err)
			}
		}
		st, err = store.New(store.Config{Path: dbPath})
		if err != nil {
			return fmt.Errorf("opening build database: %w", err)
		}
		defer st.Close()
	}

	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	report, err := build.New(bc, st).Run(ctx)
	if err != nil {
		return err
	}

	if buildFormat == "sarif" {
		data, err := sarif.FromBuild(report, root, version).ToJSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		printBuildReport(cmd, report)
	}
	if n := report.Count(build.Failed); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(report.Results))
	}
	return nil
}

func printBuildReport(cmd *cobra.Command, report *build.Report) {
	out := cmd.OutOrStdout()
	failed := color.New(color.FgRed, color.Bold)
	skipped := color.New(color.Faint)
	ok := color.New(color.FgGreen)

	for _, res := range report.Results {
		switch res.Status {
		case build.Failed:
			fmt.Fprintf(out, "%s %s: %v\n", failed.Sprint("FAIL"), res.Path, res.Err)
		case build.Skipped:
			if verbose {
				fmt.Fprintf(out, "%s %s\n", skipped.Sprint("skip"), res.Path)
			}
		default:
			if !quiet {
				fmt.Fprintf(out, "%s %s -> %s\n", ok.Sprint("ok"), res.Path, res.Output)
			}
		}
	}
	if !quiet {
		fmt.Fprintf(out, "\n%d compiled, %d skipped, %d failed\n",
			report.Count(build.Compiled), report.Count(build.Skipped), report.Count(build.Failed))
	}
}
