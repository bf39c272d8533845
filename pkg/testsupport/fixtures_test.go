package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	data := LoadFixture(t, path)
	if string(data) != "hello" {
		t.Errorf("LoadFixture() = %q, want hello", data)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	if err := os.WriteFile(path, []byte(`{"name":"ana","count":3}`), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var dest struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	LoadFixtureJSON(t, path, &dest)
	if dest.Name != "ana" || dest.Count != 3 {
		t.Errorf("LoadFixtureJSON() = %+v", dest)
	}
}
