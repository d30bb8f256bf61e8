package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/mir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Type          string // bundle type override
	ComponentName string
	Output        string // directory or .tar.xz archive
	Archive       bool   // store the bundle in the SQLite archive
}

// CompileResult is the compile command payload.
type CompileResult struct {
	Bundle   *codegen.Bundle `json:"bundle"`
	Output   string          `json:"output,omitempty"`
	Archived bool            `json:"archived"`
	Existing bool            `json:"existing,omitempty"` // archive already held this bundle id
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <document>",
		Short: "Generate a React/TSX bundle from a MIR document",
		Long: `Generate an export bundle from a MIR document.

Bundle types:
  project    - Vite project with package.json, entry point and the component
  component  - a single component file
  nodegraph  - the canonical node graph as JSON

The bundle is printed, written to --output (a directory, or an archive
when the name ends in .tar.xz), and stored in the bundle archive with
--archive.

Exit codes:
  0 - Bundle generated
  1 - Bundle generated with error diagnostics
  2 - Command error (unreadable document, bad flags, write failure)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "bundle type (project|component|nodegraph)")
	cmd.Flags().StringVar(&opts.ComponentName, "component-name", "", "component name (default metadata.name)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory or .tar.xz archive")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "store the bundle in the archive database")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := opts.loadEnv(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
	}

	genOpts := e.cfg.CodegenOptions(e.logger)
	genOpts.Registry = e.registry
	if opts.Type != "" {
		typ, err := codegen.ParseBundleType(opts.Type)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidOption, "invalid --type", err)
		}
		genOpts.Type = typ
	}
	if opts.ComponentName != "" {
		genOpts.ComponentName = opts.ComponentName
	}

	doc, err := mir.LoadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading document", err)
	}
	formatter.VerboseLog("Compiling %s as %s bundle", path, genOpts.Type)

	bundle := codegen.New(genOpts).Generate(doc)
	result := &CompileResult{Bundle: bundle, Output: opts.Output}

	if opts.Output != "" {
		if err := writeBundle(bundle, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "writing bundle", err)
		}
		formatter.VerboseLog("Wrote %d file(s) to %s", len(bundle.Files), opts.Output)
	}

	if opts.Archive {
		archive, err := e.openArchive()
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "opening archive", err)
		}
		defer archive.Close()

		inserted, err := archive.PutBundle(cmd.Context(), bundle)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeArchive, "archiving bundle", err)
		}
		result.Archived = true
		result.Existing = !inserted
	}

	failed := mir.HasErrors(bundle.Diagnostics)
	if formatter.IsJSON() {
		if failed {
			_ = formatter.Failure(ErrCodeDiagnostics, "bundle has error diagnostics", result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputCompileText(formatter, result, failed)
	}

	if failed {
		return NewExitError(ExitFailure, "bundle has error diagnostics")
	}
	return nil
}

func outputCompileText(f *OutputFormatter, r *CompileResult, failed bool) {
	b := r.Bundle
	if failed {
		_ = f.Failure(ErrCodeDiagnostics, fmt.Sprintf("Compiled %s bundle %s with errors", b.Type, b.ID), nil)
	} else {
		f.OK("Compiled %s bundle %s", b.Type, b.ID)
	}
	fmt.Fprintln(f.Writer)

	fmt.Fprintln(f.Writer, "Files:")
	for _, file := range b.Files {
		marker := " "
		if file.Path == b.EntryFilePath {
			marker = "*"
		}
		fmt.Fprintf(f.Writer, " %s %s (%s, %d bytes)\n", marker, file.Path, file.Language, len(file.Content))
	}

	if len(b.Diagnostics) > 0 {
		fmt.Fprintln(f.Writer)
		fmt.Fprintln(f.Writer, "Diagnostics:")
		f.Diagnostics(b.Diagnostics)
	}

	if r.Output != "" {
		fmt.Fprintf(f.Writer, "\nWrote bundle to %s\n", r.Output)
	}
	switch {
	case r.Existing:
		fmt.Fprintf(f.Writer, "Bundle %s already archived\n", b.ID)
	case r.Archived:
		fmt.Fprintf(f.Writer, "Archived bundle %s\n", b.ID)
	}
}
