// Package archive enumerates class files under directories, jar/war
// archives, and single class files.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/openkraft/archverify/internal/domain"
)

// RootPattern selects the files a directory root contributes.
const RootPattern = "**/*.{class,jar,war}"

const classSuffix = ".class"

// entrySeparator joins an archive path and an entry name in display paths.
const entrySeparator = "!/"

var archiveExts = map[string]bool{
	".jar": true,
	".war": true,
	".zip": true,
}

var skipDirs = map[string]bool{
	".git": true,
	".svn": true,
	".hg":  true,
}

var _ domain.ClassSource = (*Source)(nil)

// Source implements domain.ClassSource on the local filesystem.
type Source struct {
	logger *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Source) { s.logger = l }
}

func New(opts ...Option) *Source {
	s := &Source{logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Walk visits every class under roots in order: roots as given, files
// within a directory root in lexical order, archive entries in name order.
// Exclude holds doublestar patterns matched against paths relative to a
// directory root and against entry names inside an archive.
func (s *Source) Walk(roots, exclude []string, fn func(domain.ClassEntry) error) error {
	w := &walk{Source: s, exclude: exclude}
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("class root %s: %w", root, err)
		}
		switch {
		case info.IsDir():
			err = w.walkDir(root, fn)
		case isArchive(root):
			err = w.walkArchiveFile(root, fn)
		case strings.HasSuffix(root, classSuffix):
			err = visitClassFile(root, fn)
		default:
			return fmt.Errorf("class root %s: not a directory, archive, or class file", root)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Files lists the files a directory root contributes, relative to it.
func Files(root string, exclude []string) ([]string, error) {
	var files []string
	err := doublestar.GlobWalk(os.DirFS(root), RootPattern, func(p string, d fs.DirEntry) error {
		if d.IsDir() || excluded(exclude, p) {
			return nil
		}
		for _, seg := range strings.Split(path.Dir(p), "/") {
			if skipDirs[seg] {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// walk is the state of one Walk call.
type walk struct {
	*Source
	exclude []string
}

func (w *walk) walkDir(root string, fn func(domain.ClassEntry) error) error {
	files, err := Files(root, w.exclude)
	if err != nil {
		return err
	}
	w.logger.Debug("scanned class root", zap.String("root", root), zap.Int("files", len(files)))

	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if isArchive(rel) {
			err = w.walkArchiveFile(full, fn)
		} else {
			err = visitClassFile(full, fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func visitClassFile(file string, fn func(domain.ClassEntry) error) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	return fn(domain.ClassEntry{Path: file, Origin: file, Data: data})
}

func (w *walk) walkArchiveFile(file string, fn func(domain.ClassEntry) error) error {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", file, err)
	}
	defer zr.Close()

	return w.walkZip(&zr.Reader, file, file, fn)
}

// walkZip visits class entries of r, descending into nested jars such as
// a war's WEB-INF/lib.
func (w *walk) walkZip(r *zip.Reader, display, origin string, fn func(domain.ClassEntry) error) error {
	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() || excluded(w.exclude, f.Name) {
			continue
		}
		if strings.HasSuffix(f.Name, classSuffix) || isArchive(f.Name) {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	for _, f := range files {
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("reading %s%s%s: %w", display, entrySeparator, f.Name, err)
		}
		entryPath := display + entrySeparator + f.Name

		if isArchive(f.Name) {
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				return fmt.Errorf("opening nested archive %s: %w", entryPath, err)
			}
			if err := w.walkZip(nested, entryPath, origin, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(domain.ClassEntry{Path: entryPath, Origin: origin, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func excluded(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func isArchive(name string) bool {
	return archiveExts[strings.ToLower(filepath.Ext(name))]
}
