package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/corelgott/dotless/pkg/explore"
	"github.com/spf13/cobra"
)

var exploreFlags engineFlags

var exploreCmd = &cobra.Command{
	Use:   "explore <input>",
	Short: "Interactively browse the source map of a style sheet",
	Long: `Compile a style sheet with source maps enabled and browse the result
in a TUI.

Features:
  - Fragment list: every mapped position of the output
  - Details pane: generated line next to the source line it came from
  - Per-file filtering across imports
  - Full CSS overlay`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func init() {
	exploreFlags.register(exploreCmd.Flags(), false)
}

func runExplore(cmd *cobra.Command, args []string) error {
	model, err := loadExploreModel(args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore TUI: %w", err)
	}

	return nil
}

func loadExploreModel(input string) (explore.Model, error) {
	dir := filepath.Dir(input)
	cfg, err := loadProjectConfig(dir)
	if err != nil {
		return explore.Model{}, err
	}
	engineCfg, plugins, _, err := exploreFlags.resolve(cfg)
	if err != nil {
		return explore.Model{}, err
	}

	model, err := explore.New(os.DirFS(dir), filepath.Base(input), engineCfg, plugins...)
	if err != nil {
		return explore.Model{}, fmt.Errorf("loading %s: %w", input, err)
	}
	return model, nil
}
