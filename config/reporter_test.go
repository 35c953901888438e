package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestReport(t *testing.T) (*Report, string) {
	t.Helper()
	name := filepath.Join(t.TempDir(), "report.zip")
	r, err := (&ReporterConfig{Destination: name}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return r, name
}

// archiveContent returns report entries in archive order with their content.
func archiveContent(t *testing.T, name string) ([]string, map[string]string) {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	var (
		names   []string
		content = make(map[string]string)
	)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, f.Name)
		content[f.Name] = string(data)
	}
	return names, content
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReport_Archive(t *testing.T) {
	r, name := newTestReport(t)
	dir := t.TempDir()

	source := filepath.Join(dir, "site")
	writeTestFile(t, filepath.Join(source, "index.html"), `<div ui="m.1px"></div>`)
	writeTestFile(t, filepath.Join(source, "sub", "about.html"), `<p ui="p.1px"></p>`)
	result := filepath.Join(dir, "out", "index.html")
	writeTestFile(t, result, `<div ui="0"></div>`)
	logFile := filepath.Join(dir, "lastcss.log")
	writeTestFile(t, logFile, "started\n")

	// stored in arbitrary order, archive is grouped by kind
	r.StoreStyles("index.html", `[ui="0"]{margin:1px;}`)
	if err := r.StoreResult(result); err != nil {
		t.Fatalf("StoreResult() error = %v", err)
	}
	r.StoreSource(source)
	r.StoreLog("lastcss.log", logFile)
	r.StoreConfig("config.yaml", []byte("version: 1\n"))

	// result is copied at the time of a call
	writeTestFile(t, result, `<div ui="1"></div>`)
	if err := r.StoreResult(result); err != nil {
		t.Fatalf("StoreResult() error = %v", err)
	}
	// log is read when report is closed
	writeTestFile(t, logFile, "started\nfinished\n")

	tmp := r.tmp
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	names, content := archiveContent(t, name)
	want := []string{
		"MANIFEST",
		"config/config.yaml",
		"log/lastcss.log",
		"source/site/index.html",
		"source/site/sub/about.html",
		"result/index.html",
		"result/index-2.html",
		"styles/index.css",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("report entries = %v, want %v", names, want)
	}

	checks := map[string]string{
		"config/config.yaml":         "version: 1\n",
		"log/lastcss.log":            "started\nfinished\n",
		"source/site/sub/about.html": `<p ui="p.1px"></p>`,
		"result/index.html":          `<div ui="0"></div>`,
		"result/index-2.html":        `<div ui="1"></div>`,
		"styles/index.css":           `[ui="0"]{margin:1px;}`,
	}
	for entry, want := range checks {
		if got := content[entry]; got != want {
			t.Errorf("%s = %q, want %q", entry, got, want)
		}
	}

	manifest := strings.Split(strings.TrimSpace(content["MANIFEST"]), "\n")
	if len(manifest) != 6 {
		t.Fatalf("manifest lines = %d:\n%s", len(manifest), content["MANIFEST"])
	}
	for i, prefix := range []string{"config\t", "log\t", "source\t", "result\t", "result\t", "styles\t"} {
		if !strings.HasPrefix(manifest[i], prefix) {
			t.Errorf("manifest line %d = %q, want kind %q", i, manifest[i], strings.TrimSpace(prefix))
		}
	}
	if !strings.HasSuffix(manifest[0], "<generated>") || !strings.HasSuffix(manifest[2], source) {
		t.Errorf("unexpected manifest origins:\n%s", content["MANIFEST"])
	}

	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		os.RemoveAll(tmp)
		t.Errorf("temporary copies %s were not removed", tmp)
	}
	// originals are left alone
	for _, p := range []string{result, logFile, source} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stored %s should not be removed: %v", p, err)
		}
	}
}

func TestReport_Names(t *testing.T) {
	r := &Report{}
	r.StoreStyles("page.html", "a")
	r.StoreStyles("page.htm", "b")
	r.StoreStyles("page-2.html", "c")
	r.StoreStyles("page.xhtml", "d")
	r.StoreConfig("config.yaml", nil)

	var got []string
	for _, e := range r.entries {
		got = append(got, e.name)
	}
	want := "styles/page.css,styles/page-2.css,styles/page-2-2.css,styles/page-3.css,config/config.yaml"
	if strings.Join(got, ",") != want {
		t.Errorf("names = %v, want %s", got, want)
	}
}

func TestReport_AbsentFilesIgnored(t *testing.T) {
	r, name := newTestReport(t)
	dir := t.TempDir()

	r.StoreSource(filepath.Join(dir, "missing.html"))
	r.StoreLog("lastcss.log", filepath.Join(dir, "missing.log"))
	if err := r.StoreResult(filepath.Join(dir, "missing.html")); err == nil {
		t.Error("StoreResult() of absent file should fail")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	names, _ := archiveContent(t, name)
	if len(names) != 1 || names[0] != "MANIFEST" {
		t.Errorf("report entries = %v", names)
	}
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	// nil report silently ignores everything
	r.StoreConfig("name", nil)
	r.StoreLog("name", "path")
	r.StoreSource("path")
	r.StoreStyles("name", "styles")
	if err := r.StoreResult("path"); err != nil {
		t.Errorf("StoreResult on nil report should not error, got: %v", err)
	}
	if r.Name() != "" {
		t.Error("nil report has no name")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
