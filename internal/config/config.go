// Package config loads mirc.yaml project configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mirc/internal/adapter"
	"github.com/roach88/mirc/internal/codegen"
	"github.com/roach88/mirc/internal/render"
)

// FileName is the config file looked up in the working directory.
const FileName = "mirc"

// EnvPrefix prefixes environment overrides: MIRC_SERVER_ADDR, ...
const EnvPrefix = "MIRC"

// Config is the mirc project configuration.
type Config struct {
	Render   RenderConfig   `mapstructure:"render"`
	Codegen  CodegenConfig  `mapstructure:"codegen"`
	Adapters AdaptersConfig `mapstructure:"adapters"`
	Icons    IconsConfig    `mapstructure:"icons"`
	Server   ServerConfig   `mapstructure:"server"`
	Archive  ArchiveConfig  `mapstructure:"archive"`

	// Dir is the directory relative paths resolve against: the config
	// file's directory, or the working directory when no file was read.
	Dir string `mapstructure:"-"`
	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// RenderConfig configures live rendering.
type RenderConfig struct {
	Preview          bool `mapstructure:"preview"`
	RequireSelection bool `mapstructure:"require_selection"`
	MaxDepth         int  `mapstructure:"max_depth"`
}

// CodegenConfig configures bundle generation.
type CodegenConfig struct {
	BundleType    string `mapstructure:"bundle_type"`
	ComponentName string `mapstructure:"component_name"`
}

// AdaptersConfig holds the project-custom adapter group.
type AdaptersConfig struct {
	Project []AdapterEntry `mapstructure:"project"`
}

// AdapterEntry maps one authored tag to an output element.
//
// Entries are a list rather than a map keyed by tag because viper folds map
// keys to lower case and tags are case-sensitive.
type AdapterEntry struct {
	Tag      string `mapstructure:"tag"`
	Element  string `mapstructure:"element"`
	Source   string `mapstructure:"source"`
	Kind     string `mapstructure:"kind"`
	Imported string `mapstructure:"imported"`
	Local    string `mapstructure:"local"`
}

// IconsConfig lists icon providers.
type IconsConfig struct {
	Providers []IconProvider `mapstructure:"providers"`
}

// IconProvider is loaded on first Ensure from its manifest file.
type IconProvider struct {
	ID     string `mapstructure:"id"`
	Source string `mapstructure:"source"`
	// Manifest is a JSON or YAML file with an "icons" map of name (or
	// name/variant) to export name, and optionally a "source".
	Manifest string `mapstructure:"manifest"`
	// Variants limits which "name/variant" keys are kept. Empty keeps all.
	Variants []string `mapstructure:"variants"`
}

// ServerConfig configures mirc serve.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ArchiveConfig configures the SQLite bundle archive.
type ArchiveConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration from path, or from mirc.yaml in the working
// directory when path is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("render.preview", false)
	v.SetDefault("render.require_selection", false)
	v.SetDefault("render.max_depth", 12)
	v.SetDefault("codegen.bundle_type", string(codegen.BundleProject))
	v.SetDefault("codegen.component_name", "")
	v.SetDefault("server.addr", "127.0.0.1:7420")
	v.SetDefault("archive.path", ".mirc/archive.db")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		cfg.File = used
		cfg.Dir = filepath.Dir(used)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.Dir = wd
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	wd, _ := os.Getwd()
	return &Config{
		Render:  RenderConfig{MaxDepth: 12},
		Codegen: CodegenConfig{BundleType: string(codegen.BundleProject)},
		Server:  ServerConfig{Addr: "127.0.0.1:7420"},
		Archive: ArchiveConfig{Path: ".mirc/archive.db"},
		Dir:     wd,
	}
}

func validateConfig(cfg *Config) error {
	if _, err := codegen.ParseBundleType(cfg.Codegen.BundleType); err != nil {
		return fmt.Errorf("codegen.bundle_type: %w", err)
	}
	if cfg.Render.MaxDepth < 1 {
		return fmt.Errorf("render.max_depth must be at least 1, got %d", cfg.Render.MaxDepth)
	}

	tags := map[string]bool{}
	for i, e := range cfg.Adapters.Project {
		if e.Tag == "" {
			return fmt.Errorf("adapters.project[%d]: tag is required", i)
		}
		if tags[e.Tag] {
			return fmt.Errorf("adapters.project[%d]: duplicate tag %q", i, e.Tag)
		}
		tags[e.Tag] = true
		if e.Element == "" && e.Source == "" {
			return fmt.Errorf("adapters.project[%d] %s: element or source is required", i, e.Tag)
		}
		switch adapter.ImportKind(e.Kind) {
		case "", adapter.ImportDefault, adapter.ImportNamed, adapter.ImportNamespace:
		default:
			return fmt.Errorf("adapters.project[%d] %s: unknown import kind %q", i, e.Tag, e.Kind)
		}
	}

	ids := map[string]bool{}
	for i, p := range cfg.Icons.Providers {
		if p.ID == "" {
			return fmt.Errorf("icons.providers[%d]: id is required", i)
		}
		if ids[p.ID] {
			return fmt.Errorf("icons.providers[%d]: duplicate id %q", i, p.ID)
		}
		ids[p.ID] = true
		if p.Manifest == "" {
			return fmt.Errorf("icons.providers[%d] %s: manifest is required", i, p.ID)
		}
	}
	return nil
}

// Resolve makes a relative path relative to the config directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// ProjectGroup builds the project-custom adapter group.
func (c *Config) ProjectGroup() *adapter.Group {
	g := adapter.NewGroup(adapter.GroupProject)
	for _, e := range c.Adapters.Project {
		g.Register(e.descriptor())
	}
	return g
}

func (e AdapterEntry) descriptor() adapter.Descriptor {
	d := adapter.Descriptor{Tag: e.Tag, Element: e.Element}
	if e.Source == "" {
		return d
	}

	imp := &adapter.Import{
		Source:   e.Source,
		Kind:     adapter.ImportKind(e.Kind),
		Imported: e.Imported,
		Local:    e.Local,
	}
	if imp.Kind == "" {
		imp.Kind = adapter.ImportDefault
	}
	if imp.Kind == adapter.ImportNamed && imp.Imported == "" {
		imp.Imported = e.Tag
	}
	if imp.Kind != adapter.ImportNamed && imp.Local == "" {
		imp.Local = e.Tag
	}
	if d.Element == "" {
		d.Element = imp.LocalName()
	}
	d.Import = imp
	return d
}

// IconRegistry registers every configured provider. Nothing is loaded until
// a provider is ensured.
func (c *Config) IconRegistry(logger *slog.Logger) *adapter.IconRegistry {
	reg := adapter.NewIconRegistry(logger)
	for _, p := range c.Icons.Providers {
		reg.Register(p.ID, c.iconLoader(p))
	}
	return reg
}

// Registry builds the React adapter registry with the project group and
// configured icon providers.
func (c *Config) Registry(logger *slog.Logger) *adapter.Registry {
	return adapter.NewReactRegistry(c.ProjectGroup()).WithIcons(c.IconRegistry(logger))
}

func (c *Config) iconLoader(p IconProvider) adapter.Loader {
	path := c.Resolve(p.Manifest)
	return func(ctx context.Context) (adapter.IconSet, error) {
		if err := ctx.Err(); err != nil {
			return adapter.IconSet{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return adapter.IconSet{}, fmt.Errorf("read icon manifest: %w", err)
		}

		// YAML is a superset of JSON, so one decoder covers both.
		var set adapter.IconSet
		if err := yaml.Unmarshal(data, &set); err != nil {
			return adapter.IconSet{}, fmt.Errorf("parse icon manifest %s: %w", path, err)
		}
		if p.Source != "" {
			set.Source = p.Source
		}
		if set.Source == "" {
			return adapter.IconSet{}, fmt.Errorf("icon provider %s: no source module", p.ID)
		}
		set.Icons = filterVariants(set.Icons, p.Variants)
		return set, nil
	}
}

func filterVariants(icons map[string]string, variants []string) map[string]string {
	if len(variants) == 0 {
		return icons
	}
	keep := map[string]bool{}
	for _, v := range variants {
		keep[v] = true
	}
	out := make(map[string]string, len(icons))
	for k, v := range icons {
		if _, variant, ok := strings.Cut(k, "/"); ok && !keep[variant] {
			continue
		}
		out[k] = v
	}
	return out
}

// RenderOptions returns renderer options for the configured render keys.
func (c *Config) RenderOptions(logger *slog.Logger) render.Options {
	return render.Options{
		Preview:          c.Render.Preview,
		RequireSelection: c.Render.RequireSelection,
		MaxDepth:         c.Render.MaxDepth,
		Logger:           logger,
	}
}

// CodegenOptions returns generator options for the configured codegen keys.
// The bundle type was validated on load.
func (c *Config) CodegenOptions(logger *slog.Logger) codegen.Options {
	typ, _ := codegen.ParseBundleType(c.Codegen.BundleType)
	return codegen.Options{
		Type:          typ,
		ComponentName: c.Codegen.ComponentName,
		Logger:        logger,
	}
}
