package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/route"
)

// RouteOptions holds flags for the route command.
type RouteOptions struct {
	*RootOptions
	Prefix bool
}

// RouteResult is the route command payload.
type RouteResult struct {
	Path string `json:"path"`
	route.Outcome
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`
}

// NewRouteCommand creates the route command.
func NewRouteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RouteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "route <manifest> <path>",
		Short: "Match a path against a route manifest",
		Long: `Match a path against a route manifest and print the selected route
chain, bound parameters, page document and layouts.

With --prefix the longest matching prefix is selected and the rest of the
path is reported as the remainder, as nested Route nodes see it.

Exit codes:
  0 - Path matched
  1 - No route matched
  2 - Command error (unreadable manifest)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Prefix, "prefix", false, "match the longest prefix and report the remainder")

	return cmd
}

func runRoute(opts *RouteOptions, manifestPath, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	m, err := route.LoadManifest(manifestPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading manifest", err)
	}

	result := RouteResult{
		Path:        path,
		Outcome:     m.Resolve(path, opts.Prefix),
		Diagnostics: m.Check(),
	}

	if formatter.IsJSON() {
		if !result.Matched {
			_ = formatter.Failure(ErrCodeNoMatch, "no route matched "+path, result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputRouteText(formatter, result)
	}

	if !result.Matched {
		return NewExitError(ExitFailure, "no route matched "+path)
	}
	return nil
}

func outputRouteText(f *OutputFormatter, r RouteResult) {
	if !r.Matched {
		_ = f.Failure(ErrCodeNoMatch, "No route matched "+r.Path, nil)
	} else {
		f.OK("%s → %s", r.Path, strings.Join(r.Routes, " › "))
		if r.Page != "" {
			fmt.Fprintf(f.Writer, "  page:    %s\n", r.Page)
		}
		if len(r.Layouts) > 0 {
			fmt.Fprintf(f.Writer, "  layouts: %s\n", strings.Join(r.Layouts, ", "))
		}
		if len(r.Params) > 0 {
			keys := make([]string, 0, len(r.Params))
			for k := range r.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(f.Writer, "  params:")
			for _, k := range keys {
				fmt.Fprintf(f.Writer, "    %s = %s\n", k, r.Params[k])
			}
		}
		if r.Remainder != "" {
			fmt.Fprintf(f.Writer, "  rest:    %s\n", r.Remainder)
		}
	}
	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(f.Writer)
		f.Diagnostics(r.Diagnostics)
	}
}
