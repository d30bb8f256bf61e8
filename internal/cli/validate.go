package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/compiler"
	"github.com/roach88/mirc/internal/mir"
)

// FileValidation is the validation outcome for one document file.
type FileValidation struct {
	Path        string           `json:"path"`
	Valid       bool             `json:"valid"`
	FromVersion string           `json:"fromVersion,omitempty"`
	Issues      []compiler.Issue `json:"issues"`
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`
}

// ValidationResult holds validation results for every file.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>...",
		Short: "Check documents against the authoring contract",
		Long: `Validate MIR documents without rendering or generating code.

Each document is checked against the structural schema, migrated to the
current version and checked for authoring-contract violations: missing
ids and types, malformed data and list declarations, and ambiguous
references. All issues are reported, not only the first.

Exit codes:
  0 - All documents valid
  1 - One or more documents have issues
  2 - Command error (unreadable file)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, loadErrCode(err), "reading document", err)
		}
		formatter.VerboseLog("Validating %s", path)

		r := compiler.ValidateBytes(data, mir.FormatFromPath(path))
		fv := FileValidation{
			Path:        path,
			Valid:       !r.HasError,
			FromVersion: r.FromVersion,
			Issues:      r.Issues,
			Diagnostics: r.Diagnostics,
		}
		if r.HasError {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.IsJSON() {
		if !result.Valid {
			_ = formatter.Failure(ErrCodeInvalid, "validation failed", result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d document(s) invalid", countInvalid(result), len(result.Files)))
	}
	return nil
}

func countInvalid(r ValidationResult) int {
	n := 0
	for _, f := range r.Files {
		if !f.Valid {
			n++
		}
	}
	return n
}

func outputValidateText(f *OutputFormatter, r ValidationResult) {
	for _, fv := range r.Files {
		if fv.Valid {
			f.OK("%s", fv.Path)
		} else {
			_ = f.Failure(ErrCodeInvalid, fmt.Sprintf("%s (%d issue(s))", fv.Path, len(fv.Issues)), nil)
			f.Issues(fv.Issues)
		}
		if fv.FromVersion != "" && fv.FromVersion != mir.CurrentVersion {
			fmt.Fprintf(f.Writer, "  migrated from version %s\n", fv.FromVersion)
		}
		if f.Verbose && len(fv.Diagnostics) > 0 {
			f.Diagnostics(fv.Diagnostics)
		}
	}
	if len(r.Files) > 1 {
		fmt.Fprintf(f.Writer, "\n%d valid, %d invalid\n", len(r.Files)-countInvalid(r), countInvalid(r))
	}
}
