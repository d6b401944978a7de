package icp

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"leadgen-engine/internal/domain"
)

// ErrNotFound means a named bundle is not in the registry.
var ErrNotFound = errors.New("icp bundle not found")

// Registry is the set of bundles available to one run. Built-ins are always
// present; a file bundle with the same name overrides its built-in.
type Registry struct {
	bundles map[string]Config
}

func NewRegistry() *Registry {
	r := &Registry{bundles: map[string]Config{}}
	for _, c := range Builtins() {
		r.bundles[c.Name] = c
	}
	return r
}

// LoadDir merges every .yml/.yaml bundle under dir into the registry. A
// missing directory is fine (first run before bootstrap); a malformed bundle
// is not.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read icp dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read icp bundle %s: %w", e.Name(), err)
		}
		var c Config
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("parse icp bundle %s: %w", e.Name(), err)
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(e.Name(), ext)
		}
		c = c.Normalize()
		warnings, err := c.Validate()
		if err != nil {
			return fmt.Errorf("icp bundle %s: %w", e.Name(), err)
		}
		for _, w := range warnings {
			log.Printf("[icp] bundle=%s warning: %s", c.Name, w)
		}
		r.bundles[c.Name] = c
	}
	return nil
}

func (r *Registry) Get(name string) (Config, error) {
	c, ok := r.bundles[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.bundles))
	for n := range r.bundles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve combines a parsed query spec with an optional named bundle. The
// bundle is the source of truth for weights; parsed criteria are unioned
// into its filters. With no bundle named, the built-in default carries the
// parsed spec (or nothing at all, which is still a valid run).
func (r *Registry) Resolve(parsed domain.FilterSpec, named string) (Config, error) {
	name := named
	if name == "" {
		name = DefaultName
	}
	c, err := r.Get(name)
	if err != nil {
		return Config{}, err
	}
	c = c.clone()
	c.Filters.Union(parsed)
	return c, nil
}
