package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/spf13/cobra"
)

var compileFlags engineFlags

var compileCmd = &cobra.Command{
	Use:   "compile <input> [output]",
	Short: "Compile one style sheet",
	Long: `Compile a single style sheet. Imports are resolved relative to the
directory of the input file and may not leave it.

Without an output file the CSS is written to stdout. With --map the source
map is written to <output>.map and referenced from the output.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompile,
}

func init() {
	compileFlags.register(compileCmd.Flags(), true)
}

func runCompile(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := ""
	if len(args) > 1 {
		output = args[1]
	}

	dir := filepath.Dir(input)
	cfg, err := loadProjectConfig(dir)
	if err != nil {
		return err
	}
	engineCfg, plugins, sourceMap, err := compileFlags.resolve(cfg)
	if err != nil {
		return err
	}
	if sourceMap && output == "" {
		return errors.New("--map requires an output file")
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	rec := &logging.Recorder{}
	opts := []engine.Option{
		engine.WithConfig(engineCfg),
		engine.WithPlugins(plugins...),
		engine.WithLogger(rec),
	}
	if output != "" {
		opts = append(opts, engine.WithSourceMapFile(filepath.Base(output)))
	}
	eng := engine.New(&css.Parser{FS: os.DirFS(dir)}, opts...)

	name := filepath.Base(input)
	var mapBuf bytes.Buffer
	var out string
	if sourceMap {
		out, err = eng.TransformToCSSWithSourceMap(string(src), name, &mapBuf)
	} else {
		out, err = eng.TransformToCSS(string(src), name)
	}
	if err != nil {
		return err
	}
	if !eng.LastTransformationSuccessful() {
		return errors.New(strings.Join(rec.Errors(), "\n"))
	}

	logger := newLogger(cmd)
	for _, imp := range eng.Imports() {
		logger.Debug("imported %s", imp)
	}

	if output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	if sourceMap {
		if err := os.WriteFile(output+".map", mapBuf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output+".map", err)
		}
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "/*# sourceMappingURL=" + filepath.Base(output) + ".map */\n"
	}
	if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	logger.Info("wrote %s", output)
	return nil
}
