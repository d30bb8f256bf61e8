package render

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/resolve"
	"github.com/roach88/mirc/internal/route"
	"github.com/roach88/mirc/internal/scope"
)

// Render diagnostic codes.
const (
	CodeListEmptyNodeMissing = "RENDER_LIST_EMPTY_NODE_MISSING"
	CodeListDuplicateKey     = "RENDER_LIST_DUPLICATE_KEY"
	CodeListEmptyNodeCycle   = "RENDER_LIST_EMPTY_NODE_CYCLE"
	CodeRouteNoManifest      = "RENDER_ROUTE_NO_MANIFEST"
	CodeRouteNotFound        = "RENDER_ROUTE_NOT_FOUND"
	CodeRouteTooDeep         = "RENDER_ROUTE_TOO_DEEP"
	CodePageNotFound         = "RENDER_PAGE_NOT_FOUND"
)

// maxRouteDepth bounds nested Route documents.
const maxRouteDepth = 8

// PageSource supplies the documents routes point at.
type PageSource interface {
	Page(docID string) (*mir.Document, bool)
}

// PageMap is an in-memory PageSource.
type PageMap map[string]*mir.Document

func (m PageMap) Page(docID string) (*mir.Document, bool) {
	doc, ok := m[docID]
	return doc, ok && doc != nil
}

// Options configure a Renderer.
type Options struct {
	// Preview prefers data.mock scopes.
	Preview bool
	// RequireSelection makes the first click on a node select it; only a
	// click on the selected node fires events.
	RequireSelection bool
	// MaxDepth bounds reference resolution; <= 0 means the default.
	MaxDepth int
	// CurrentPath is matched by Route nodes that have no other path.
	CurrentPath string
	Manifest    *route.Manifest
	Pages       PageSource
	// Outlets mounts external content at nodes of the rendered document,
	// replacing their children.
	Outlets map[string][]*ViewNode
	Logger  *slog.Logger
}

// Input is the live state a document is rendered against.
type Input struct {
	Params map[string]any
	State  map[string]any
	Data   any
	// CurrentPath overrides Options.CurrentPath for one pass.
	CurrentPath string
}

// Renderer renders documents. It holds no per-pass state and is safe for
// concurrent use.
type Renderer struct {
	registry *adapter.Registry
	opts     Options
	logger   *slog.Logger
}

// New creates a renderer. A nil registry uses the standard React registry.
func New(registry *adapter.Registry, opts Options) *Renderer {
	if registry == nil {
		registry = adapter.NewReactRegistry(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{registry: registry, opts: opts, logger: logger}
}

// Render performs one full pass over doc.
func (r *Renderer) Render(doc *mir.Document, in Input) *View {
	p := &pass{
		r:           r,
		currentPath: in.CurrentPath,
		seen:        make(map[string]bool),
		expanding:   make(map[*ir.Node]bool),
	}
	if p.currentPath == "" {
		p.currentPath = r.opts.CurrentPath
	}

	view := &View{requireSelection: r.opts.RequireSelection}
	view.Root = p.document(doc, in, frame{outlets: r.opts.Outlets})
	view.Diagnostics = p.diags
	view.reindex()

	r.logger.Debug("rendered document",
		"nodes", len(view.order),
		"diagnostics", len(view.Diagnostics),
		"path", p.currentPath)
	return view
}

// frame is the per-branch rendering position.
type frame struct {
	tree       *ir.Tree
	prefix     string // route document prefix
	suffix     string // enclosing list keys
	outlets    map[string][]*ViewNode
	remainder  *string // unmatched path inherited from the nearest Route
	routeDepth int
}

func (f frame) key(nodeID string) string {
	return f.prefix + nodeID + f.suffix
}

type pass struct {
	r           *Renderer
	currentPath string
	diags       []mir.Diagnostic
	seen        map[string]bool
	// expanding holds the nodes on the current render path.
	expanding map[*ir.Node]bool
}

// report records a diagnostic once per code and path.
func (p *pass) report(diags ...mir.Diagnostic) {
	for _, d := range diags {
		id := d.Code + "\x00" + d.Path + "\x00" + d.Message
		if p.seen[id] {
			continue
		}
		p.seen[id] = true
		p.diags = append(p.diags, d)
	}
}

func (p *pass) warn(code, path, msg string) {
	p.report(mir.Diagnostic{
		Code: code, Severity: mir.SeverityWarning, Source: mir.SourceAdapter, Message: msg, Path: path,
	})
}

func (p *pass) document(doc *mir.Document, in Input, f frame) *ViewNode {
	tree, diags := ir.Normalize(doc)
	p.report(diags...)
	f.tree = tree
	ctx := &resolve.Context{
		Params: doc.DefaultParams(in.Params),
		State:  doc.InitialState(in.State),
		Data:   in.Data,
	}
	return p.node(tree.Root, ctx, f)
}

func (p *pass) node(n *ir.Node, ctx *resolve.Context, f frame) *ViewNode {
	p.expanding[n] = true
	defer delete(p.expanding, n)

	if n.Data != nil {
		ctx = ctx.WithData(scope.Merge(ctx.Data, n.Data, ctx, p.scopeOptions()))
	}
	if n.Type == RouteTag {
		return p.route(n, ctx, f)
	}

	vn := p.element(n, ctx, f)
	if content, ok := f.outlets[n.ID]; ok {
		vn.Children = content
		return vn
	}
	if n.List != nil {
		vn.Children = p.list(n, ctx, f)
		return vn
	}
	for _, c := range n.Children {
		if cv := p.node(c, ctx, f); cv != nil {
			vn.Children = append(vn.Children, cv)
		}
	}
	return vn
}

func (p *pass) scopeOptions() scope.Options {
	return scope.Options{Preview: p.r.opts.Preview, MaxDepth: p.r.opts.MaxDepth}
}

func (p *pass) element(n *ir.Node, ctx *resolve.Context, f frame) *ViewNode {
	depth := p.r.opts.MaxDepth
	props := resolve.ResolveMap(n.Props, ctx, depth)

	resolved := *n
	resolved.Props = props
	res := p.r.registry.Resolve(&resolved)
	p.report(res.Diagnostics...)

	vn := &ViewNode{
		Key:      f.key(n.ID),
		NodeID:   n.ID,
		Type:     n.Type,
		Element:  res.Element,
		Props:    props,
		Style:    resolve.ResolveMap(n.Style, ctx, depth),
		Deferred: res.Deferred,
	}
	if n.Text != nil {
		vn.Text = resolve.ResolveDeep(n.Text, ctx, depth)
	}
	if len(n.Events) > 0 {
		vn.Events = make(map[string]ir.Event, len(n.Events))
		for k, ev := range n.Events {
			ev.Params = resolve.ResolveMap(ev.Params, ctx, depth)
			vn.Events[k] = ev
		}
	}
	return vn
}

// list expands the node's children once per item. A source that is not an
// array, or an empty one, renders the emptyNodeId node if there is one.
func (p *pass) list(n *ir.Node, ctx *resolve.Context, f frame) []*ViewNode {
	src, kind := scope.ListSource(n.List, ctx.Data, ctx)
	items, _ := scope.Items(src)
	emptyID := n.List.EmptyNode()

	if len(items) == 0 {
		p.r.logger.Debug("list is empty", "node", n.ID, "source", kind)
		if emptyID == "" {
			return nil
		}
		empty, ok := f.tree.Lookup(emptyID)
		if !ok {
			p.warn(CodeListEmptyNodeMissing, n.Path, fmt.Sprintf("emptyNodeId %q does not name a node", emptyID))
			return nil
		}
		if p.expanding[empty] {
			p.warn(CodeListEmptyNodeCycle, n.Path,
				fmt.Sprintf("emptyNodeId %q names the list or one of its ancestors", emptyID))
			return nil
		}
		if v := p.node(empty, ctx, f); v != nil {
			return []*ViewNode{v}
		}
		return nil
	}

	var out []*ViewNode
	used := make(map[string]bool, len(items))
	for _, e := range scope.Iterate(n.List, items, ctx) {
		key := e.Key
		if used[key] {
			p.warn(CodeListDuplicateKey, n.Path, fmt.Sprintf("list key %q repeats; falling back to index", key))
			key = fmt.Sprintf("%s~%d", key, e.Index)
		}
		used[key] = true

		item := f
		item.suffix = f.suffix + "#" + key
		for _, c := range n.Children {
			if c.ID == emptyID {
				continue
			}
			if cv := p.node(c, e.Context, item); cv != nil {
				out = append(out, cv)
			}
		}
	}
	return out
}
