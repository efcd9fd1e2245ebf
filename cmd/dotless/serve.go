package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/corelgott/dotless/pkg/css"
	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/serve"
	"github.com/spf13/cobra"
)

var (
	serveFlags engineFlags
	serveRoot  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming compile server",
	Long: `Run Dotless as a long-lived server that accepts compile requests
via stdin and writes results to stdout using NDJSON format.

Imports are resolved below --root. The process keeps one engine and
processes requests until stdin closes, a close request arrives or SIGTERM
is received.`,
	RunE: runServe,
}

func init() {
	serveFlags.register(serveCmd.Flags(), false)
	serveCmd.Flags().StringVar(&serveRoot, "root", ".", "Directory imports are resolved in")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig(serveRoot)
	if err != nil {
		return err
	}
	engineCfg, plugins, _, err := serveFlags.resolve(cfg)
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create and run server
	srv := serve.NewServer(&css.Parser{FS: os.DirFS(serveRoot)}, cmd.InOrStdin(), cmd.OutOrStdout(),
		engine.WithConfig(engineCfg),
		engine.WithPlugins(plugins...),
	)
	return srv.Run(ctx)
}
