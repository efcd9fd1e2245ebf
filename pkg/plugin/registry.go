// Package plugin holds the named plugin factories the command line and the
// project configuration can refer to.
package plugin

import (
	"fmt"
	"sort"

	"github.com/corelgott/dotless/pkg/env"
)

// Factory builds a configurator from user supplied parameters. It rejects
// parameters it does not understand.
type Factory func(params map[string]string) (env.Configurator, error)

// Registry maps plugin names to factories.
type Registry struct {
	factories    map[string]Factory
	descriptions map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:    make(map[string]Factory),
		descriptions: make(map[string]string),
	}
}

// Default returns a registry with the built-in plugins.
func Default() *Registry {
	r := NewRegistry()
	r.Register(RTLName, "mirror left and right in properties and values", NewRTL)
	r.Register(HexColorName, "normalize the case of hex colors (case=lower|upper)", NewHexColor)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name, description string, f Factory) {
	r.factories[name] = f
	r.descriptions[name] = description
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns the one-line description of a registered plugin.
func (r *Registry) Description(name string) string {
	return r.descriptions[name]
}

// Configurator builds the configurator registered under name.
func (r *Registry) Configurator(name string, params map[string]string) (env.Configurator, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown plugin %q", name)
	}
	c, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("configuring plugin %s: %w", name, err)
	}
	return c, nil
}

// configurator adapts a constructor function to env.Configurator.
type configurator struct {
	name   string
	create func() (env.Plugin, error)
}

func (c configurator) Name() string { return c.name }

func (c configurator) CreatePlugin() (env.Plugin, error) { return c.create() }

func checkParams(params map[string]string, allowed ...string) error {
	for k := range params {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown parameter %q", k)
		}
	}
	return nil
}
