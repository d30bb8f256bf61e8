package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Input            string // params/state/data file
	Path             string // current path for Route nodes
	Manifest         string
	Pages            string // directory of page and layout documents
	Preview          bool
	RequireSelection bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a document to a view tree",
		Long: `Render a MIR document against params, state and data and print the
resulting view tree.

The --input file is JSON or YAML with optional params, state, data and
currentPath keys. Route nodes match --path against --manifest and load
pages and layouts from --pages, one document per file named by its id.

Examples:
  mirc render card.json
  mirc render card.json --input input.yaml --preview
  mirc render app.json --manifest routes.yaml --pages pages --path /users/7
  mirc render card.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "params/state/data file (JSON or YAML)")
	cmd.Flags().StringVar(&opts.Path, "path", "", "current path for Route nodes")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "route manifest file")
	cmd.Flags().StringVar(&opts.Pages, "pages", "", "directory of page and layout documents")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "prefer data.mock scopes")
	cmd.Flags().BoolVar(&opts.RequireSelection, "require-selection", false, "first click selects instead of firing")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := opts.loadEnv(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "loading config", err)
	}

	doc, err := mir.LoadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading document", err)
	}
	in, err := readInput(opts.Input)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading input", err)
	}
	if opts.Path != "" {
		in.CurrentPath = opts.Path
	}

	renderOpts := e.cfg.RenderOptions(e.logger)
	renderOpts.Preview = renderOpts.Preview || opts.Preview
	renderOpts.RequireSelection = renderOpts.RequireSelection || opts.RequireSelection
	if renderOpts.Manifest, err = loadManifest(opts.Manifest); err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading manifest", err)
	}
	pages, err := loadPages(opts.Pages)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrCode(err), "loading pages", err)
	}
	renderOpts.Pages = pages
	formatter.VerboseLog("Rendering %s with %d page(s)", path, len(pages))

	view := render.New(e.registry, renderOpts).Render(doc, in)

	if formatter.IsJSON() {
		return formatter.Success(view)
	}
	outputRenderText(formatter, view)
	return nil
}

func outputRenderText(f *OutputFormatter, v *render.View) {
	if v.Root == nil {
		fmt.Fprintln(f.Writer, "(empty)")
	} else {
		printViewNode(f, v.Root, 0)
	}
	if len(v.Diagnostics) > 0 {
		fmt.Fprintln(f.Writer)
		fmt.Fprintln(f.Writer, "Diagnostics:")
		f.Diagnostics(v.Diagnostics)
	}
}

func printViewNode(f *OutputFormatter, n *render.ViewNode, depth int) {
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s<%s> %s", indent, n.Element, n.Key)
	if n.Type != n.Element {
		line += " (" + n.Type + ")"
	}
	if n.Text != nil {
		line += fmt.Sprintf(" %q", fmt.Sprint(n.Text))
	}
	if n.Deferred {
		line += " [deferred]"
	}
	fmt.Fprintln(f.Writer, line)
	for _, c := range n.Children {
		printViewNode(f, c, depth+1)
	}
}
