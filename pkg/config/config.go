// Package config loads dotless.yaml project files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/corelgott/dotless/pkg/env"
	"github.com/corelgott/dotless/pkg/plugin"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up by Find.
const FileName = "dotless.yaml"

// Config is the content of a project file.
type Config struct {
	Compress                 bool           `yaml:"compress"`
	Debug                    bool           `yaml:"debug"`
	KeepFirstSpecialComment  bool           `yaml:"keep_first_special_comment"`
	DisableVariableRedefines bool           `yaml:"disable_variable_redefines"`
	SourceMap                bool           `yaml:"source_map"`
	Plugins                  []PluginConfig `yaml:"plugins,omitempty"`
	Build                    BuildConfig    `yaml:"build"`
}

// PluginConfig names a registered plugin and its parameters.
type PluginConfig struct {
	Name   string            `yaml:"name"`
	Params map[string]string `yaml:"params,omitempty"`
}

// BuildConfig controls directory builds.
type BuildConfig struct {
	Extensions    []string `yaml:"extensions,omitempty"`
	IncludeHidden bool     `yaml:"include_hidden"`
	OutputDir     string   `yaml:"output_dir,omitempty"`
	Workers       int      `yaml:"workers,omitempty"`
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads and validates a project file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return c, nil
}

// Find returns the project file in dir, or "" when there is none.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

func (c *Config) validate() error {
	for i, p := range c.Plugins {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("plugins[%d]: missing name", i)
		}
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("build.workers must not be negative, got %d", c.Build.Workers)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Build.Extensions) == 0 {
		c.Build.Extensions = []string{".less"}
	}
	for i, ext := range c.Build.Extensions {
		if !strings.HasPrefix(ext, ".") {
			c.Build.Extensions[i] = "." + ext
		}
	}
	if c.Build.Workers == 0 {
		c.Build.Workers = runtime.NumCPU()
	}
}

// EngineConfig returns the engine flags.
func (c *Config) EngineConfig() env.Config {
	return env.Config{
		Compress:                 c.Compress,
		Debug:                    c.Debug,
		KeepFirstSpecialComment:  c.KeepFirstSpecialComment,
		DisableVariableRedefines: c.DisableVariableRedefines,
	}
}

// Configurators builds the configured plugins from reg, in file order.
func (c *Config) Configurators(reg *plugin.Registry) ([]env.Configurator, error) {
	out := make([]env.Configurator, 0, len(c.Plugins))
	for _, p := range c.Plugins {
		cfg, err := reg.Configurator(p.Name, p.Params)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// ParsePluginFlag parses "name" or "name:key=value,key=value".
func ParsePluginFlag(s string) (PluginConfig, error) {
	name, rest, hasParams := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin %q: missing name", s)
	}
	pc := PluginConfig{Name: name}
	if !hasParams {
		return pc, nil
	}
	pc.Params = make(map[string]string)
	for _, kv := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return PluginConfig{}, fmt.Errorf("invalid plugin %q: expected key=value, got %q", s, kv)
		}
		pc.Params[k] = strings.TrimSpace(v)
	}
	return pc, nil
}
