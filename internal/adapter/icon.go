package adapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/mirc/internal/mir"
)

// IconTag is the node type resolved through the icon registry.
const IconTag = "Icon"

// IconPlaceholder stands in for an icon that cannot be shown yet.
const IconPlaceholder = "span"

// Icon diagnostic codes.
const (
	CodeIconRefInvalid      = "ICON_REF_INVALID"
	CodeIconProviderUnknown = "ICON_PROVIDER_UNKNOWN"
	CodeIconProviderError   = "ICON_PROVIDER_ERROR"
	CodeIconNotFound        = "ICON_NOT_FOUND"
)

// ProviderState is the load state of an icon provider.
type ProviderState string

const (
	StateIdle    ProviderState = "idle"
	StateLoading ProviderState = "loading"
	StateReady   ProviderState = "ready"
	StateError   ProviderState = "error"
)

// IconRef names an icon.
type IconRef struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Variant  string `json:"variant,omitempty"`
}

func (r IconRef) String() string {
	if r.Variant != "" {
		return fmt.Sprintf("%s:%s/%s", r.Provider, r.Name, r.Variant)
	}
	return r.Provider + ":" + r.Name
}

// IconRefFromProps reads {provider, name, variant} from props.icon, or from
// the props themselves when props.icon is absent.
func IconRefFromProps(props map[string]any, path string) (IconRef, *mir.Diagnostic) {
	src := props
	if m, ok := props["icon"].(map[string]any); ok {
		src = m
	}
	provider, _ := src["provider"].(string)
	name, _ := src["name"].(string)
	variant, _ := src["variant"].(string)
	if provider == "" || name == "" {
		return IconRef{}, &mir.Diagnostic{
			Code:       CodeIconRefInvalid,
			Severity:   mir.SeverityWarning,
			Source:     mir.SourceAdapter,
			Message:    "icon node needs string provider and name",
			Path:       path,
			Suggestion: `set props.icon to {"provider": "...", "name": "..."}`,
		}
	}
	return IconRef{Provider: provider, Name: name, Variant: variant}, nil
}

// IconSet is the content of a loaded provider.
type IconSet struct {
	// Source is the module exporting the icons.
	Source string `json:"source" yaml:"source"`
	// Icons maps an icon name, or "name/variant", to its export name.
	Icons map[string]string `json:"icons" yaml:"icons"`
}

// Loader fetches a provider's icon set.
type Loader func(ctx context.Context) (IconSet, error)

// ProviderEvent is broadcast when a provider changes state.
type ProviderEvent struct {
	Provider string        `json:"provider"`
	State    ProviderState `json:"state"`
	Error    string        `json:"error,omitempty"`
}

type provider struct {
	loader Loader
	state  ProviderState
	set    IconSet
	err    error
}

// IconRegistry holds icon providers and their load state.
//
// Concurrent Ensure calls for one provider share a single load. The load
// runs detached from the caller's context; a failed load leaves the provider
// in the error state until the next Ensure.
type IconRegistry struct {
	mu        sync.RWMutex
	providers map[string]*provider
	loads     singleflight.Group

	obsMu     sync.Mutex
	observers map[int]func(ProviderEvent)
	nextObs   int

	logger *slog.Logger
}

// NewIconRegistry creates an empty registry. A nil logger discards output.
func NewIconRegistry(logger *slog.Logger) *IconRegistry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &IconRegistry{
		providers: make(map[string]*provider),
		observers: make(map[int]func(ProviderEvent)),
		logger:    logger,
	}
}

// Register adds or replaces a lazily loaded provider in the idle state.
func (r *IconRegistry) Register(id string, loader Loader) {
	r.mu.Lock()
	r.providers[id] = &provider{loader: loader, state: StateIdle}
	r.mu.Unlock()
	r.notify(ProviderEvent{Provider: id, State: StateIdle})
}

// RegisterStatic adds a provider that is immediately ready.
func (r *IconRegistry) RegisterStatic(id string, set IconSet) {
	r.mu.Lock()
	r.providers[id] = &provider{
		loader: func(context.Context) (IconSet, error) { return set, nil },
		state:  StateReady,
		set:    set,
	}
	r.mu.Unlock()
	r.notify(ProviderEvent{Provider: id, State: StateReady})
}

// State returns the provider's current state.
func (r *IconRegistry) State(id string) (ProviderState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return "", false
	}
	return p.state, true
}

// Providers returns registered provider ids, sorted.
func (r *IconRegistry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ensure loads the provider if it is not ready and waits for the outcome.
// A cancelled ctx stops the wait, not the load.
func (r *IconRegistry) Ensure(ctx context.Context, id string) error {
	r.mu.RLock()
	p, ok := r.providers[id]
	ready := ok && p.state == StateReady
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("icon provider %q is not registered", id)
	}
	if ready {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	ch := r.loads.DoChan(id, func() (any, error) {
		return nil, r.load(detached, id)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *IconRegistry) load(ctx context.Context, id string) error {
	r.mu.Lock()
	p, ok := r.providers[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("icon provider %q is not registered", id)
	}
	if p.state == StateReady {
		r.mu.Unlock()
		return nil
	}
	p.state = StateLoading
	p.err = nil
	loader := p.loader
	r.mu.Unlock()
	r.notify(ProviderEvent{Provider: id, State: StateLoading})
	r.logger.Debug("loading icon provider", "provider", id)

	set, err := loader(ctx)

	r.mu.Lock()
	if err != nil {
		p.state = StateError
		p.err = err
	} else {
		p.state = StateReady
		p.set = set
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("icon provider failed to load", "provider", id, "error", err)
		r.notify(ProviderEvent{Provider: id, State: StateError, Error: err.Error()})
		return fmt.Errorf("load icon provider %q: %w", id, err)
	}
	r.logger.Info("icon provider ready", "provider", id, "icons", len(set.Icons))
	r.notify(ProviderEvent{Provider: id, State: StateReady})
	return nil
}

// Subscribe registers fn for state changes and returns a function that
// removes it. fn is called synchronously from the goroutine changing state.
func (r *IconRegistry) Subscribe(fn func(ProviderEvent)) (unsubscribe func()) {
	r.obsMu.Lock()
	id := r.nextObs
	r.nextObs++
	r.observers[id] = fn
	r.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.obsMu.Lock()
			delete(r.observers, id)
			r.obsMu.Unlock()
		})
	}
}

func (r *IconRegistry) notify(ev ProviderEvent) {
	r.obsMu.Lock()
	ids := make([]int, 0, len(r.observers))
	for id := range r.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(ProviderEvent), len(ids))
	for i, id := range ids {
		fns[i] = r.observers[id]
	}
	r.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Resolve maps an icon reference to an element. It never starts a load: a
// provider that is not ready yields a deferred placeholder.
func (r *IconRegistry) Resolve(ref IconRef) Resolution {
	r.mu.RLock()
	p, ok := r.providers[ref.Provider]
	var (
		state ProviderState
		set   IconSet
		err   error
	)
	if ok {
		state, set, err = p.state, p.set, p.err
	}
	r.mu.RUnlock()

	diag := func(code, msg, suggestion string) Resolution {
		return Resolution{
			Element: IconPlaceholder,
			Diagnostics: []mir.Diagnostic{{
				Code: code, Severity: mir.SeverityWarning, Source: mir.SourceAdapter,
				Message: msg, Suggestion: suggestion,
			}},
		}
	}

	switch {
	case !ok:
		return diag(CodeIconProviderUnknown, fmt.Sprintf("icon provider %q is not registered", ref.Provider),
			"add the provider under icons.providers in mirc.yaml")
	case state == StateError:
		return diag(CodeIconProviderError, fmt.Sprintf("icon provider %q failed to load: %v", ref.Provider, err),
			"ensure the provider again to retry")
	case state != StateReady:
		return Resolution{Element: IconPlaceholder, Deferred: true}
	}

	export, found := "", false
	if ref.Variant != "" {
		export, found = set.Icons[ref.Name+"/"+ref.Variant]
	}
	if !found {
		export, found = set.Icons[ref.Name]
	}
	if !found {
		return diag(CodeIconNotFound, fmt.Sprintf("icon %s not found", ref), "")
	}
	return Resolution{
		Element: export,
		Imports: []Import{{Source: set.Source, Kind: ImportNamed, Imported: export}},
	}
}
