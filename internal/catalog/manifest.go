package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Source names one partition resource to load.
type Source struct {
	Name        string `yaml:"name"`
	File        string `yaml:"file"`
	DisplayName string `yaml:"display_name"`
}

// Manifest lists the partition sources for a data directory.
type Manifest struct {
	Partitions []Source `yaml:"partitions"`
}

var titleCaser = cases.Title(language.English)

// LoadManifest reads a partitions.yaml manifest. File paths are resolved
// relative to the manifest's directory.
func LoadManifest(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	dir := filepath.Dir(path)
	sources := make([]Source, 0, len(m.Partitions))
	for _, p := range m.Partitions {
		if p.Name == "" || p.File == "" {
			return nil, fmt.Errorf("manifest entry missing name or file (name=%q file=%q)", p.Name, p.File)
		}
		if !filepath.IsAbs(p.File) {
			p.File = filepath.Join(dir, p.File)
		}
		if p.DisplayName == "" {
			p.DisplayName = displayName(p.Name)
		}
		sources = append(sources, p)
	}
	return sources, nil
}

// DiscoverSources scans a data directory for supported partition files when
// no manifest is present. Partition names derive from the file names.
func DiscoverSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}

	var sources []Source
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		sources = append(sources, Source{
			Name:        name,
			File:        filepath.Join(dir, e.Name()),
			DisplayName: displayName(name),
		})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// displayName turns a partition slug like "jane-street" into "Jane Street".
func displayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "-", " "))
}
