package archive_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/aprx/internal/archive"
	"github.com/papapumpkin/aprx/internal/archive/archivetest"
)

func openFixture(t *testing.T, files map[string]string) *archive.Provider {
	t.Helper()
	dir := t.TempDir()
	path := archivetest.Write(t, dir, "project.aprx", files)
	p, err := archive.Open(path, archive.WithBaseDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("reads entries by internal path", func(t *testing.T) {
		t.Parallel()
		p := openFixture(t, map[string]string{
			"GISProject.json":   `{"projectItems":[]}`,
			"map/map.json":      `{"name":"Layers"}`,
			"map/towns.json":    `{"name":"Towns"}`,
			"layout/page1.json": `{}`,
		})

		data, err := p.Read("map/towns.json")
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if got, want := string(data), `{"name":"Towns"}`; got != want {
			t.Errorf("Read = %q, want %q", got, want)
		}

		// Leading slashes and backslashes resolve to the same entry.
		for _, alias := range []string{"/map/towns.json", `map\towns.json`} {
			if _, err := p.Read(alias); err != nil {
				t.Errorf("Read(%q): %v", alias, err)
			}
		}
	})

	t.Run("lists entries sorted", func(t *testing.T) {
		t.Parallel()
		p := openFixture(t, map[string]string{
			"map/b.json":      "bb",
			"GISProject.json": "{}",
			"map/a.json":      "a",
		})

		want := []archive.Entry{
			{Name: "GISProject.json", Size: 2},
			{Name: "map/a.json", Size: 1},
			{Name: "map/b.json", Size: 2},
		}
		if diff := cmp.Diff(want, p.Entries()); diff != "" {
			t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("not a zip", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "broken.aprx")
		if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := archive.Open(path)
		if !errors.Is(err, archive.ErrArchive) {
			t.Fatalf("Open error = %v, want ErrArchive", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := archive.Open(filepath.Join(t.TempDir(), "nope.aprx"))
		if !errors.Is(err, archive.ErrArchive) {
			t.Fatalf("Open error = %v, want ErrArchive", err)
		}
	})

	t.Run("missing manifest leaves no working area", func(t *testing.T) {
		t.Parallel()
		path := archivetest.Write(t, t.TempDir(), "project.aprx", map[string]string{
			"map/map.json": "{}",
		})
		base := t.TempDir()

		_, err := archive.Open(path, archive.WithBaseDir(base))
		if !errors.Is(err, archive.ErrArchive) {
			t.Fatalf("Open error = %v, want ErrArchive", err)
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("working area left behind: %v", entries)
		}
	})

	t.Run("rejects entries escaping the root", func(t *testing.T) {
		t.Parallel()
		path := archivetest.Write(t, t.TempDir(), "evil.aprx", map[string]string{
			"GISProject.json":  "{}",
			"../../escape.txt": "x",
		})
		_, err := archive.Open(path, archive.WithBaseDir(t.TempDir()))
		if !errors.Is(err, archive.ErrArchive) {
			t.Fatalf("Open error = %v, want ErrArchive", err)
		}
	})

	t.Run("file and directory entries collide", func(t *testing.T) {
		t.Parallel()
		path := archivetest.Write(t, t.TempDir(), "clash.aprx", map[string]string{
			"GISProject.json": "{}",
			"a":               "file",
			"a/b.json":        "{}",
		})
		base := t.TempDir()

		_, err := archive.Open(path, archive.WithBaseDir(base))
		if !errors.Is(err, archive.ErrArchive) {
			t.Fatalf("Open error = %v, want ErrArchive", err)
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("working area left behind: %v", entries)
		}
	})
}

func TestRead_NotFound(t *testing.T) {
	t.Parallel()
	p := openFixture(t, map[string]string{
		"GISProject.json": "{}",
		"map/map.json":    "{}",
	})

	for _, path := range []string{"map/missing.json", "../../outside.json", "map", "GISProject.json/x"} {
		_, err := p.Read(path)
		if !errors.Is(err, archive.ErrNotFound) {
			t.Errorf("Read(%q) error = %v, want ErrNotFound", path, err)
		}
	}
	if p.Exists("map/missing.json") || p.Exists("map") {
		t.Error("Exists reported a missing entry")
	}
	if !p.Exists("GISProject.json") {
		t.Error("Exists missed the manifest")
	}
}

func TestClose(t *testing.T) {
	t.Parallel()
	p := openFixture(t, map[string]string{"GISProject.json": "{}"})
	dir := p.Dir()

	if err := p.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("working area %s still present after Close (stat err: %v)", dir, err)
	}
	if _, err := p.Read("GISProject.json"); !errors.Is(err, archive.ErrClosed) {
		t.Errorf("Read after Close error = %v, want ErrClosed", err)
	}
}
