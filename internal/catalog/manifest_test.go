package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codecrack/catalog-server/internal/catalog"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "acme.csv", "ID,Title,Difficulty,Topics\n")
	manifest := filepath.Join(dir, "partitions.yaml")
	os.WriteFile(manifest, []byte(`
partitions:
  - name: acme
    file: acme.csv
  - name: jane-street
    file: jane.csv
    display_name: "Jane Street Capital"
`), 0o644)

	sources, err := catalog.LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	if sources[0].File != filepath.Join(dir, "acme.csv") {
		t.Errorf("File = %q, want path relative to manifest dir", sources[0].File)
	}
	if sources[0].DisplayName != "Acme" {
		t.Errorf("DisplayName = %q, want derived Acme", sources[0].DisplayName)
	}
	if sources[1].DisplayName != "Jane Street Capital" {
		t.Errorf("DisplayName = %q, want explicit value kept", sources[1].DisplayName)
	}
}

func TestLoadManifest_MissingFields(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "partitions.yaml")
	os.WriteFile(manifest, []byte("partitions:\n  - name: acme\n"), 0o644)

	if _, err := catalog.LoadManifest(manifest); err == nil {
		t.Error("LoadManifest() should reject entries without a file")
	}
}

func TestDiscoverSources(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "globex.csv", "ID\n")
	writeCSV(t, dir, "acme.csv", "ID\n")
	writeCSV(t, dir, "notes.txt", "ignored")
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	sources, err := catalog.DiscoverSources(dir)
	if err != nil {
		t.Fatalf("DiscoverSources() error = %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2 (txt and dirs skipped)", len(sources))
	}
	if sources[0].Name != "acme" || sources[1].Name != "globex" {
		t.Errorf("sources = %v, want sorted acme, globex", sources)
	}
	if sources[1].DisplayName != "Globex" {
		t.Errorf("DisplayName = %q, want Globex", sources[1].DisplayName)
	}
}
