package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Local stores files under dir/<source>/<name>
type Local struct {
	dir    string
	logger *zap.Logger
}

// NewLocal creates a local archive rooted at dir
func NewLocal(dir string, logger *zap.Logger) *Local {
	if dir == "" {
		dir = "data"
	}
	return &Local{dir: dir, logger: logger.Named("archive")}
}

func (l *Local) path(source, name string) string {
	return filepath.Join(l.dir, source, filepath.Base(name))
}

// Path returns where source/name is stored
func (l *Local) Path(source, name string) string {
	return l.path(source, name)
}

func fileExists(p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Exists implements Archive
func (l *Local) Exists(_ context.Context, source, name string) (bool, error) {
	return fileExists(l.path(source, name))
}

// Imported implements Archive
func (l *Local) Imported(_ context.Context, source, name string) (bool, error) {
	return fileExists(l.path(source, ImportedName(name)))
}

// Open implements Archive
func (l *Local) Open(_ context.Context, source, name string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(source, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", source, name, ErrNotExist)
	}
	return f, err
}

// Create implements Archive. Content is written to a temporary file in
// the same directory and renamed into place on Close.
func (l *Local) Create(_ context.Context, source, name string) (io.WriteCloser, error) {
	target := l.path(source, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+filepath.Base(name)+"-*")
	if err != nil {
		return nil, err
	}
	return &atomicFile{File: tmp, target: target}, nil
}

type atomicFile struct {
	*os.File
	target string
	closed bool
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), f.target); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

// MarkImported implements Archive
func (l *Local) MarkImported(_ context.Context, source, name string) error {
	from, to := l.path(source, name), l.path(source, ImportedName(name))
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("mark %s imported: %w", name, err)
	}
	l.logger.Debug("File marked imported", zap.String("from", from), zap.String("to", to))
	return nil
}

// Remove implements Archive. Removing a missing file is not an error.
func (l *Local) Remove(_ context.Context, source, name string) error {
	err := os.Remove(l.path(source, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ Archive = (*Local)(nil)
