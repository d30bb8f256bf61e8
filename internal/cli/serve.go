package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/server"
	"github.com/roach88/mirc/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	Manifest  string
	Pages     string
	NoArchive bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preview HTTP service",
		Long: `Run the preview service used by editors.

Endpoints:
  POST /api/render                 render a document to a view tree
  POST /api/compile                generate an export bundle
  POST /api/validate               validate a document
  POST /api/routes/match           match a path against a manifest
  GET  /api/icons                  icon provider states
  POST /api/icons/{provider}/ensure
  GET  /api/bundles[/{id}]         archived bundles
  GET  /ws/icons                   icon provider state stream

The service stops on SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "route manifest file")
	cmd.Flags().StringVar(&opts.Pages, "pages", "", "directory of page and layout documents")
	cmd.Flags().BoolVar(&opts.NoArchive, "no-archive", false, "do not open the bundle archive")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := opts.loadEnvLevel(cmd, slog.LevelInfo)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
	}

	manifest, err := loadManifest(opts.Manifest)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading manifest", err)
	}
	pages, err := loadPages(opts.Pages)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading pages", err)
	}

	var archive *store.Store
	if !opts.NoArchive {
		if archive, err = e.openArchive(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "opening archive", err)
		}
		defer archive.Close()
	}

	addr := opts.Addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}

	srv := server.New(server.Options{
		Registry: e.registry,
		Render:   e.cfg.RenderOptions(e.logger),
		Codegen:  e.cfg.CodegenOptions(e.logger),
		Manifest: manifest,
		Pages:    pages,
		Archive:  archive,
		Logger:   e.logger,
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !formatter.IsJSON() {
		fmt.Fprintf(formatter.Writer, "Serving preview on http://%s\n", addr)
	}
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "serving", err)
	}
	if formatter.IsJSON() {
		return formatter.Success(map[string]string{"addr": addr, "state": "stopped"})
	}
	return nil
}
