// Package collection gates which backend collections may be queried.
package collection

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Allowlist is a fixed set of permitted collection names. Matching is exact
// and case-sensitive.
type Allowlist struct {
	names map[string]struct{}
	order []string
}

// New returns an allowlist holding the given names. Duplicates are ignored.
func New(names ...string) *Allowlist {
	a := &Allowlist{
		names: make(map[string]struct{}, len(names)),
	}
	for _, name := range names {
		if _, exists := a.names[name]; exists {
			continue
		}
		a.names[name] = struct{}{}
		a.order = append(a.order, name)
	}
	return a
}

// IsAllowed reports whether name is in the allowlist.
func (a *Allowlist) IsAllowed(name string) bool {
	_, ok := a.names[name]
	return ok
}

// Names returns the permitted names in manifest order.
func (a *Allowlist) Names() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Len returns how many collections are allowed.
func (a *Allowlist) Len() int {
	return len(a.order)
}

// Manifest is the on-disk shape of a collection manifest.
//
// YAML:
//
//	collections:
//	  - articles
//	  - pages
//
// HCL:
//
//	collections = ["articles", "pages"]
type Manifest struct {
	Collections []string `yaml:"collections" json:"collections" hcl:"collections"`
}

// LoadManifest reads a manifest from fs. The format is chosen by extension:
// .yaml/.yml, .hcl or .json.
func LoadManifest(fs afero.Fs, path string) (*Allowlist, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection manifest: %w", err)
	}

	var m Manifest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(src, &m)
	case ".hcl":
		err = hclsimple.Decode(filepath.Base(path), src, nil, &m)
	case ".json":
		err = json.Unmarshal(src, &m)
	default:
		return nil, fmt.Errorf("unsupported collection manifest format %q (supported: .yaml, .yml, .hcl, .json)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse collection manifest %s: %w", path, err)
	}

	for i, name := range m.Collections {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("collection manifest %s: entry %d is empty", path, i)
		}
	}

	return New(m.Collections...), nil
}
