package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/store"
)

// BundleDetail is the bundles show payload.
type BundleDetail struct {
	Bundle  *codegen.Bundle    `json:"bundle"`
	Digests []store.FileDigest `json:"digests"`
}

// NewBundlesCommand creates the bundles command group.
func NewBundlesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Inspect the bundle archive",
		Long: `List, show, export and remove bundles stored with compile --archive.

File contents are verified against their stored digests whenever a bundle
is read.`,
	}

	cmd.AddCommand(newBundlesListCommand(rootOpts))
	cmd.AddCommand(newBundlesShowCommand(rootOpts))
	cmd.AddCommand(newBundlesExportCommand(rootOpts))
	cmd.AddCommand(newBundlesRemoveCommand(rootOpts))

	return cmd
}

func newBundlesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List archived bundles in archive order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, cmd, func(f *OutputFormatter, archive *store.Store) error {
				list, err := archive.ListBundles(cmd.Context())
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeArchive, "listing bundles", err)
				}
				if f.IsJSON() {
					return f.Success(list)
				}
				if len(list) == 0 {
					fmt.Fprintln(f.Writer, "No bundles archived.")
					return nil
				}
				for _, s := range list {
					fmt.Fprintf(f.Writer, "%4d  %s  %-9s %s (%d file(s))\n",
						s.Seq, s.ID, s.Type, s.EntryFilePath, s.FileCount)
				}
				return nil
			})
		},
	}
}

func newBundlesShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show an archived bundle",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, cmd, func(f *OutputFormatter, archive *store.Store) error {
				b, err := archive.GetBundle(cmd.Context(), args[0])
				if err != nil {
					return archiveReadError(f, err)
				}
				digests, err := archive.Digests(cmd.Context(), args[0])
				if err != nil {
					return archiveReadError(f, err)
				}
				if f.IsJSON() {
					return f.Success(BundleDetail{Bundle: b, Digests: digests})
				}

				f.OK("%s bundle %s", b.Type, b.ID)
				for _, d := range digests {
					marker := " "
					if d.Path == b.EntryFilePath {
						marker = "*"
					}
					fmt.Fprintf(f.Writer, " %s %s  %s\n", marker, d.Digest[:16], d.Path)
				}
				if len(b.Diagnostics) > 0 {
					fmt.Fprintln(f.Writer)
					f.Diagnostics(b.Diagnostics)
				}
				return nil
			})
		},
	}
}

func newBundlesExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:           "export <id>",
		Short:         "Write an archived bundle to a directory or .tar.xz archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, cmd, func(f *OutputFormatter, archive *store.Store) error {
				b, err := archive.GetBundle(cmd.Context(), args[0])
				if err != nil {
					return archiveReadError(f, err)
				}
				if err := writeBundle(b, output); err != nil {
					return f.Fail(ExitCommandError, ErrCodeWriteFailed, "writing bundle", err)
				}
				if f.IsJSON() {
					return f.Success(map[string]any{"id": b.ID, "output": output, "files": b.Paths()})
				}
				f.OK("Exported %d file(s) to %s", len(b.Files), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory or .tar.xz archive")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newBundlesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <id>",
		Short:         "Remove an archived bundle",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(rootOpts, cmd, func(f *OutputFormatter, archive *store.Store) error {
				if err := archive.DeleteBundle(cmd.Context(), args[0]); err != nil {
					return archiveReadError(f, err)
				}
				if f.IsJSON() {
					return f.Success(map[string]string{"id": args[0], "state": "removed"})
				}
				f.OK("Removed %s", args[0])
				return nil
			})
		},
	}
}

// withArchive loads the config, opens the archive and runs fn.
func withArchive(opts *RootOptions, cmd *cobra.Command, fn func(*OutputFormatter, *store.Store) error) error {
	f := opts.formatter(cmd)
	e, err := opts.loadEnv(cmd)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
	}
	archive, err := e.openArchive()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeArchive, "opening archive", err)
	}
	defer archive.Close()
	return fn(f, archive)
}

func archiveReadError(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return f.Fail(ExitCommandError, ErrCodeNotFound, "bundle not found", err)
	case errors.Is(err, store.ErrDigestMismatch):
		return f.Fail(ExitFailure, ErrCodeArchive, "bundle content does not match its digest", err)
	}
	return f.Fail(ExitCommandError, ErrCodeArchive, "reading bundle", err)
}
