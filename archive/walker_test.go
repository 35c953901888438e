package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

type entry struct {
	name    string
	content string
}

func makeZip(t *testing.T, entries ...entry) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zipFile.Close()

	w := zip.NewWriter(zipFile)
	for _, e := range entries {
		if strings.HasSuffix(e.name, "/") {
			hdr := &zip.FileHeader{Name: e.name}
			hdr.SetMode(os.ModeDir | 0755)
			if _, err := w.CreateHeader(hdr); err != nil {
				t.Fatalf("Failed to create directory %s: %v", e.name, err)
			}
			continue
		}
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return zipPath
}

func htmlOnly(name string) bool {
	return strings.HasSuffix(name, ".html")
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		entry{"site/", ""},
		entry{"site/index.html", `<div ui="m.1px"></div>`},
		entry{"site/about.html", `<div ui="p.1px"></div>`},
		entry{"site/style.css", "body{}"},
		entry{"readme.txt", "readme"},
	)

	tests := []struct {
		name  string
		match func(string) bool
		want  []string
	}{
		{"html only", htmlOnly, []string{"site/index.html", "site/about.html"}},
		{"everything", nil, []string{"site/index.html", "site/about.html", "site/style.css", "readme.txt"}},
		{"nothing", func(string) bool { return false }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.match, func(archive string, file *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, file.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_FileContent(t *testing.T) {
	zipPath := makeZip(t, entry{"index.html", `<div ui="m.1px"></div>`})

	err := Walk(zipPath, htmlOnly, func(_ string, file *zip.File) error {
		rc, err := file.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		if string(data) != `<div ui="m.1px"></div>` {
			t.Errorf("content = %q", data)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Walk() error = %v", err)
	}
}

func TestWalk_Errors(t *testing.T) {
	stopErr := errors.New("stop walking")
	tests := []struct {
		name    string
		archive func(t *testing.T) string
		walkFn  WalkFunc
		want    error
	}{
		{
			name:    "nonexistent file",
			archive: func(*testing.T) string { return "/nonexistent/file.zip" },
		},
		{
			name: "invalid zip file",
			archive: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "invalid.zip")
				if err := os.WriteFile(p, []byte("not a zip file"), 0644); err != nil {
					t.Fatal(err)
				}
				return p
			},
		},
		{
			name: "path traversal",
			archive: func(t *testing.T) string {
				return makeZip(t, entry{"ok.html", "x"}, entry{"../evil.html", "x"})
			},
		},
		{
			name: "absolute path",
			archive: func(t *testing.T) string {
				return makeZip(t, entry{"/etc/evil.html", "x"})
			},
		},
		{
			name: "walkFn error stops walking",
			archive: func(t *testing.T) string {
				return makeZip(t, entry{"a.html", "x"}, entry{"b.html", "x"})
			},
			walkFn: func(string, *zip.File) error { return stopErr },
			want:   stopErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited int
			walkFn := tt.walkFn
			if walkFn == nil {
				walkFn = func(string, *zip.File) error {
					visited++
					return nil
				}
			}
			err := Walk(tt.archive(t), htmlOnly, walkFn)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Walk() error = %v, want %v", err, tt.want)
			}
			if visited != 0 {
				t.Errorf("unsafe archive entries visited: %d", visited)
			}
		})
	}
}

func TestIsArchive(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte(`<html></html>`), 0644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		want    bool
		wantErr bool
	}{
		{"zip", makeZip(t, entry{"a.html", "x"}), true, false},
		{"html", page, false, false},
		{"empty", empty, false, false},
		{"missing", filepath.Join(dir, "missing.zip"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsArchive(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsArchive() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsArchive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"index.html", true},
		{"site/index.html", true},
		{"site/..html", true},
		{"../index.html", false},
		{"site/../../index.html", false},
		{"/index.html", false},
		{`\index.html`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSafePath(tt.name); got != tt.want {
				t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
