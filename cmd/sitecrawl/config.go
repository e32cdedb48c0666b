package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// AppName is used for the configuration directory.
const AppName = "sitecrawl"

// DefaultConfigPath returns the YAML configuration file consulted on every run.
// On Linux: ~/.config/sitecrawl/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// YAMLLoader reads option defaults from a YAML mapping of flag names to
// values, for example:
//
//	depth: 3
//	delay: 500ms
//	state-file: crawl.db
//
// Keys may use dashes or underscores.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[strings.ReplaceAll(k, "_", "-")] = v
	}

	return kong.ResolverFunc(func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		v, ok := normalized[flag.Name]
		if !ok {
			return nil, nil
		}
		return v, nil
	}), nil
}
