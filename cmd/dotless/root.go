package main

import (
	"fmt"
	"os"

	"github.com/corelgott/dotless/pkg/config"
	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/plugin"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	verbose    bool
	quiet      bool
	colorMode  string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "dotless",
	Short: "Dotless - style sheet compiler with source maps",
	Long: `Dotless compiles style sheets to CSS, inlining local imports and
substituting @variables, and can emit Source Map v3 files that point every
rule and declaration back to the file it came from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupColor(colorMode)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to "+config.FileName+" (default: look in the working directory)")

	// Add subcommands
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupColor decides whether fatih/color output is enabled.
func setupColor(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		// Check if stderr is a TTY and NO_COLOR is not set
		color.NoColor = !term.IsTerminal(int(os.Stderr.Fd())) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("invalid --color %q: want auto, always or never", mode)
	}
	return nil
}

func logLevel() logging.Level {
	switch {
	case quiet:
		return logging.LevelError
	case verbose:
		return logging.LevelDebug
	default:
		return logging.LevelWarn
	}
}

func newLogger(cmd *cobra.Command) logging.Logger {
	return logging.NewConsoleLogger(cmd.ErrOrStderr(), logLevel())
}

// loadProjectConfig reads --config, or dotless.yaml in dir when present.
func loadProjectConfig(dir string) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.Find(dir)
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// engineFlags are the output flags shared by every compiling command. They
// can only switch features on; the project file provides the defaults.
type engineFlags struct {
	compress                 bool
	debug                    bool
	keepFirstSpecialComment  bool
	disableVariableRedefines bool
	sourceMap                bool
	plugins                  []string
}

func (f *engineFlags) register(fs *pflag.FlagSet, withMap bool) {
	fs.BoolVar(&f.compress, "compress", false, "Minify the output")
	fs.BoolVar(&f.debug, "debug", false, "Annotate rule sets with their source line")
	fs.BoolVar(&f.keepFirstSpecialComment, "keep-first-comment", false, "Keep the first /*! comment when compressing")
	fs.BoolVar(&f.disableVariableRedefines, "disable-variable-redefines", false, "First definition of a variable wins")
	fs.StringArrayVar(&f.plugins, "plugin", nil, "Activate a plugin: name or name:key=value,... (repeatable)")
	if withMap {
		fs.BoolVar(&f.sourceMap, "map", false, "Write a source map next to the output")
	}
}

// resolve merges the flags over cfg.
func (f *engineFlags) resolve(cfg *config.Config) (env.Config, []env.Configurator, bool, error) {
	ec := cfg.EngineConfig()
	ec.Compress = ec.Compress || f.compress
	ec.Debug = ec.Debug || f.debug
	ec.KeepFirstSpecialComment = ec.KeepFirstSpecialComment || f.keepFirstSpecialComment
	ec.DisableVariableRedefines = ec.DisableVariableRedefines || f.disableVariableRedefines

	merged := *cfg
	merged.Plugins = append([]config.PluginConfig(nil), cfg.Plugins...)
	for _, p := range f.plugins {
		pc, err := config.ParsePluginFlag(p)
		if err != nil {
			return env.Config{}, nil, false, err
		}
		merged.Plugins = append(merged.Plugins, pc)
	}
	configurators, err := merged.Configurators(plugin.Default())
	if err != nil {
		return env.Config{}, nil, false, err
	}

	return ec, configurators, cfg.SourceMap || f.sourceMap, nil
}
