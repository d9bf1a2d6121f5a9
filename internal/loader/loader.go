// Package loader reads domain lineage manifests from disk. A manifest is
// a YAML file describing one domain: its name and the extracted lineage
// of every query that builds a table in it.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tracelight-dev/tracelight/internal/build"
)

// Manifest is one domain manifest file.
type Manifest struct {
	Domain  string               `yaml:"domain"`
	Queries []build.QueryLineage `yaml:"queries"`
}

// LoadFile parses and validates a single manifest.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if m.Domain == "" {
		return nil, fmt.Errorf("manifest %s: missing domain", path)
	}
	for i := range m.Queries {
		q := &m.Queries[i]
		if q.Target == "" {
			return nil, fmt.Errorf("manifest %s: query %d has no target", path, i)
		}
		// Queries inherit the manifest domain unless they set their own.
		if q.Domain == "" {
			q.Domain = m.Domain
		}
	}
	return &m, nil
}

// LoadDir loads every .yaml/.yml manifest in dir (non-recursive, sorted
// by file name) and returns the combined query list. A target defined in
// more than one manifest is an error.
func LoadDir(dir string) ([]build.QueryLineage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read lineage directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var queries []build.QueryLineage
	targets := make(map[string]string) // target -> defining file
	for _, path := range paths {
		m, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, q := range m.Queries {
			if prev, ok := targets[q.Target]; ok {
				return nil, fmt.Errorf("target %q defined in both %s and %s", q.Target, prev, path)
			}
			targets[q.Target] = path
			queries = append(queries, q)
		}
	}
	return queries, nil
}
