package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Site is an "open <site>" target.
type Site struct {
	Name    string   `yaml:"name"`
	Phrases []string `yaml:"phrases"`
	URL     string   `yaml:"url"`
	Reply   string   `yaml:"reply"`
}

// Catalog holds the canned content the dispatcher draws from.
type Catalog struct {
	Sites []Site   `yaml:"sites"`
	Jokes []string `yaml:"jokes"`
	Facts []string `yaml:"facts"`
}

// Default returns the embedded catalog.
func Default() Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load returns the embedded catalog with any section present in the
// file at path replacing the built-in one. An empty path or a missing
// file yields the defaults.
func Load(path string) (Catalog, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return Catalog{}, fmt.Errorf("read catalog %q: %w", path, err)
	}

	override, err := Parse(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse catalog %q: %w", path, err)
	}

	if len(override.Sites) > 0 {
		c.Sites = override.Sites
	}
	if len(override.Jokes) > 0 {
		c.Jokes = override.Jokes
	}
	if len(override.Facts) > 0 {
		c.Facts = override.Facts
	}
	return c, nil
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, err
	}

	for i, s := range c.Sites {
		if s.URL == "" || len(s.Phrases) == 0 {
			return Catalog{}, fmt.Errorf("site %d (%q): url and phrases are required", i, s.Name)
		}
		for j, p := range s.Phrases {
			c.Sites[i].Phrases[j] = strings.ToLower(strings.TrimSpace(p))
		}
		if s.Reply == "" {
			c.Sites[i].Reply = fmt.Sprintf("Opening %s.", s.Name)
		}
	}

	return c, nil
}
