package scope

import (
	"maps"

	"github.com/roach88/mirc/internal/mir"
	"github.com/roach88/mirc/internal/resolve"
)

// Options tune scope computation.
type Options struct {
	// Preview prefers data.mock over data.value when no live value exists.
	Preview  bool
	MaxDepth int
}

// Merge layers a node's data declaration over the inherited scope.
//
// Order of application:
//  1. source: a resolvable data.source reference replaces the inherited scope
//  2. no live source value: data.mock (preview only), else data.value
//  3. extend: shallow override merge onto the scope object
//  4. pick: narrow the result to a sub-path
//
// A nil config returns the inherited scope unchanged. The inherited value is
// never modified.
func Merge(inherited any, cfg *mir.DataConfig, ctx *resolve.Context, opts Options) any {
	if cfg == nil {
		return inherited
	}

	var live any
	if ref, ok := mir.ParseRef(cfg.Source); ok {
		live = resolve.Ref(ref, ctx)
	}

	scoped := inherited
	switch {
	case live != nil:
		scoped = live
	case opts.Preview && cfg.Mock != nil:
		scoped = resolve.ResolveDeep(cfg.Mock, ctx, opts.MaxDepth)
	case cfg.Value != nil:
		scoped = resolve.ResolveDeep(cfg.Value, ctx, opts.MaxDepth)
	}

	if extend := cfg.ExtendMap(); extend != nil {
		scoped = mergeExtend(scoped, resolve.ResolveMap(extend, ctx, opts.MaxDepth))
	}

	if pick := cfg.PickPath(); pick != "" {
		scoped, _ = resolve.Lookup(scoped, pick)
	}

	return scoped
}

// mergeExtend copies base (when it is a map) and lets extend entries win.
// A non-map base is discarded; extend alone forms the scope.
func mergeExtend(base any, extend map[string]any) map[string]any {
	merged := make(map[string]any, len(extend))
	if m, ok := base.(map[string]any); ok && m != nil {
		merged = maps.Clone(m)
	}
	for k, v := range extend {
		merged[k] = v
	}
	return merged
}
