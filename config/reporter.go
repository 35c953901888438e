package config

import (
	"archive/zip"
	"bytes"
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"lastcss/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{names: make(map[string]int)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// entryKind selects report directory entry goes into. Kinds are listed in
// manifest in this order.
type entryKind int

const (
	kindConfig entryKind = iota
	kindLog
	kindSource
	kindResult
	kindStyles
)

func (k entryKind) String() string {
	switch k {
	case kindConfig:
		return "config"
	case kindLog:
		return "log"
	case kindSource:
		return "source"
	case kindResult:
		return "result"
	case kindStyles:
		return "styles"
	}
	return "unknown"
}

type entry struct {
	kind entryKind
	// name in the archive
	name string
	// path entry was taken from, empty for generated data
	original string
	// path to read when report is finalized
	actual string
	data   []byte
	stamp  time.Time
}

// Report accumulates what is necessary to troubleshoot styling run: effective
// configuration, logs, source documents, styled results and generated style
// sheets.
// NOTE: presently not to be used concurrently!
type Report struct {
	file    *os.File
	entries []entry
	// taken archive names with number of times each was requested
	names map[string]int
	// holds copies of results, removed when report is closed
	tmp string
}

// Close finalizes debug report.
func (r *Report) Close() error {
	if r == nil {
		// Ignore uninitialized cases to avoid checking in many places. This means no report has been requested.
		return nil
	}
	if r.file == nil {
		return nil
	}
	err := r.finalize()
	err = multierr.Append(err, r.file.Close())
	if len(r.tmp) > 0 {
		err = multierr.Append(err, os.RemoveAll(r.tmp))
		r.tmp = ""
	}
	return err
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// StoreConfig saves configuration text under requested name.
func (r *Report) StoreConfig(name string, data []byte) {
	if r == nil {
		return
	}
	r.add(entry{kind: kindConfig, name: name, data: data, stamp: time.Now()})
}

// StoreLog remembers log file. It is read when report is closed so
// everything logged until then gets in.
func (r *Report) StoreLog(name, path string) {
	if r == nil {
		return
	}
	r.add(entry{kind: kindLog, name: name, original: path, actual: absPath(path)})
}

// StoreSource remembers source document or directory of documents. Sources
// are never modified, they are read when report is closed.
func (r *Report) StoreSource(path string) {
	if r == nil {
		return
	}
	r.add(entry{kind: kindSource, name: filepath.Base(path), original: path, actual: absPath(path)})
}

// StoreResult copies styled document as it is at the time of a call. The same
// result could be stored many times (watch restyles it on every change),
// every copy is kept.
func (r *Report) StoreResult(path string) error {
	if r == nil {
		return nil
	}

	if len(r.tmp) == 0 {
		dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
		if err != nil {
			return fmt.Errorf("unable to create report directory: %w", err)
		}
		r.tmp = dir
	}

	where := filepath.Join(r.tmp, strconv.Itoa(len(r.entries)))
	if err := copyFile(where, path); err != nil {
		return fmt.Errorf("unable to copy result into report: %w", err)
	}
	r.add(entry{kind: kindResult, name: filepath.Base(path), original: path, actual: where, stamp: time.Now()})
	return nil
}

// StoreStyles saves style sheet generated for document name.
func (r *Report) StoreStyles(name, styles string) {
	if r == nil {
		return
	}
	name = strings.TrimSuffix(name, filepath.Ext(name)) + ".css"
	r.add(entry{kind: kindStyles, name: name, data: []byte(styles), stamp: time.Now()})
}

// add places e under its kind directory, repeated names get numeric suffix
// before extension.
func (r *Report) add(e entry) {
	if r.names == nil {
		r.names = make(map[string]int)
	}
	name := path.Join(e.kind.String(), filepath.ToSlash(e.name))
	if n := r.names[name]; n > 0 {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		for n++; ; n++ {
			versioned := fmt.Sprintf("%s-%d%s", stem, n, ext)
			if r.names[versioned] == 0 {
				r.names[name] = n
				name = versioned
				break
			}
		}
	}
	r.names[name] = max(r.names[name], 1)
	e.name = name
	r.entries = append(r.entries, e)
}

func absPath(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return path
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// finalize creates the final archive (report) with all previously stored items.
func (r *Report) finalize() error {

	arc := zip.NewWriter(r.file)
	defer arc.Close()

	entries := slices.Clone(r.entries)
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.kind, b.kind)
	})

	if err := saveFile(arc, "MANIFEST", time.Now(), prepareManifest(entries)); err != nil {
		return err
	}

	// in the same order as in manifest
	for _, e := range entries {
		if e.data != nil {
			if err := saveFile(arc, e.name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		// ignoring absent files
		info, err := os.Stat(e.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			stamp := e.stamp
			if stamp.IsZero() {
				stamp = info.ModTime()
			}
			if err := saveFileFrom(arc, e.name, stamp, e.actual); err != nil {
				return err
			}
		case info.IsDir() && e.kind == kindSource:
			if err := saveDir(arc, e.name, e.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

func prepareManifest(entries []entry) *bytes.Buffer {
	now := time.Now()

	buf := new(bytes.Buffer)
	for _, e := range entries {
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		origin := e.original
		if len(origin) == 0 {
			origin = "<generated>"
		}
		fmt.Fprintf(buf, "%s\t%s\t%s\t%s\n", e.kind, stamp.UTC().Format(time.UnixDate), e.name, origin)
	}
	return buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return nil
}

func saveFileFrom(dst *zip.Writer, name string, t time.Time, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

// saveDir stores documents of source directory keeping their relative paths.
func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			// ignore directories, links, sockets, etc.
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return saveFileFrom(dst, path.Join(name, filepath.ToSlash(rel)), info.ModTime(), p)
	})
}
