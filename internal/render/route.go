package render

import (
	"fmt"
	"maps"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/resolve"
	"github.com/roach88/mirc/internal/route"
)

// RouteTag is the node type that mounts a manifest route.
const RouteTag = "Route"

// route renders a Route node: the route named by props.routeId (default the
// manifest root) is matched against props.currentPath, else the remainder
// left by the nearest enclosing Route, else the pass's current path. The
// matched page is wrapped in its layouts, innermost first, each mounting the
// content at its outlet node. No match renders nothing.
func (p *pass) route(n *ir.Node, ctx *resolve.Context, f frame) *ViewNode {
	props := resolve.ResolveMap(n.Props, ctx, p.r.opts.MaxDepth)

	manifest := p.r.opts.Manifest
	if manifest == nil {
		p.warn(CodeRouteNoManifest, n.Path, "Route node rendered without a route manifest")
		return nil
	}
	if f.routeDepth >= maxRouteDepth {
		p.warn(CodeRouteTooDeep, n.Path, fmt.Sprintf("Route nesting exceeds %d levels", maxRouteDepth))
		return nil
	}

	routeID, _ := props["routeId"].(string)
	if routeID == "" {
		routeID = route.RootID
	}
	rn, ok := manifest.Find(routeID)
	if !ok {
		p.warn(CodeRouteNotFound, n.Path, fmt.Sprintf("route %q is not in the manifest", routeID))
		return nil
	}

	path, explicit := props["currentPath"].(string)
	if !explicit {
		path = p.currentPath
		if f.remainder != nil {
			path = *f.remainder
		}
	}

	m, ok := matchRoute(rn, path)
	if !ok {
		p.r.logger.Debug("no route matched", "node", n.ID, "route", routeID, "path", path)
		return nil
	}

	params := make(map[string]any, len(m.Params))
	for k, v := range m.Params {
		params[k] = v
	}
	maps.Copy(params, paramsFromProps(props))

	key := f.key(n.ID)
	remainder := m.Remainder
	inner := frame{
		suffix:     f.suffix,
		remainder:  &remainder,
		routeDepth: f.routeDepth + 1,
	}

	var content *ViewNode
	if page := m.Page(); page != "" {
		pf := inner
		pf.prefix = key + "/" + page + "/"
		content = p.page(page, params, pf, n)
	}
	layouts := m.Layouts()
	for i := len(layouts) - 1; i >= 0; i-- {
		l := layouts[i]
		lf := inner
		lf.prefix = key + "/" + l.LayoutDocID + "/"
		if content != nil && l.OutletNodeID != "" {
			lf.outlets = map[string][]*ViewNode{l.OutletNodeID: {content}}
		}
		if wrapped := p.page(l.LayoutDocID, params, lf, n); wrapped != nil {
			content = wrapped
		}
	}

	vn := &ViewNode{
		Key:     key,
		NodeID:  n.ID,
		Type:    n.Type,
		Element: adapter.PassthroughElement,
		Props: map[string]any{
			"data-route-id":   m.Leaf().ID,
			"data-route-path": path,
		},
	}
	if content != nil {
		vn.Children = []*ViewNode{content}
	}
	return vn
}

// matchRoute prefers a full match. A prefix match is accepted only when it
// went below rn, leaving the rest of the path to nested Route nodes.
func matchRoute(rn *route.Node, path string) (*route.Match, bool) {
	if m, ok := rn.Match(path); ok {
		return m, true
	}
	m, ok := rn.MatchPrefix(path)
	if !ok || m.Leaf() == rn {
		return nil, false
	}
	return m, true
}

// paramsFromProps forwards props.params to the routed documents.
func paramsFromProps(props map[string]any) map[string]any {
	m, _ := props["params"].(map[string]any)
	return m
}

func (p *pass) page(docID string, params map[string]any, f frame, at *ir.Node) *ViewNode {
	if p.r.opts.Pages == nil {
		p.warn(CodePageNotFound, at.Path, fmt.Sprintf("no page source for document %q", docID))
		return nil
	}
	doc, ok := p.r.opts.Pages.Page(docID)
	if !ok {
		p.warn(CodePageNotFound, at.Path, fmt.Sprintf("document %q not found", docID))
		return nil
	}
	return p.document(doc, Input{Params: params}, f)
}
