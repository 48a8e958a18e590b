// Package archive keeps the raw files downloaded from the statistical
// sources. A file X.ext that has been loaded is renamed to X_import.ext,
// which is how later runs know it does not need to be fetched again.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/statload/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrNotExist is returned when opening a file that is not archived
var ErrNotExist = errors.New("archived file does not exist")

// importedSuffix marks a file as loaded into the database
const importedSuffix = "_import"

// Archive stores raw files grouped by source (eurostat, istat, mur)
type Archive interface {
	// Exists reports whether source/name exists, imported or not
	Exists(ctx context.Context, source, name string) (bool, error)
	// Imported reports whether the imported copy of source/name exists
	Imported(ctx context.Context, source, name string) (bool, error)
	Open(ctx context.Context, source, name string) (io.ReadCloser, error)
	// Create returns a writer whose content becomes visible on Close
	Create(ctx context.Context, source, name string) (io.WriteCloser, error)
	MarkImported(ctx context.Context, source, name string) error
	Remove(ctx context.Context, source, name string) error
}

// ImportedName returns the name a file takes once imported:
// "22_289.csv" becomes "22_289_import.csv".
func ImportedName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + importedSuffix + ext
}

// State is where a file stands in the download/import cycle
type State int

const (
	// StateMissing means neither the file nor its imported copy exist
	StateMissing State = iota
	// StatePending means the file was downloaded but not imported
	StatePending
	// StateImported means the imported copy exists
	StateImported
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateImported:
		return "imported"
	default:
		return "missing"
	}
}

// StateOf reports the state of source/name. The imported copy wins when
// both exist.
func StateOf(ctx context.Context, a Archive, source, name string) (State, error) {
	imported, err := a.Imported(ctx, source, name)
	if err != nil {
		return StateMissing, err
	}
	if imported {
		return StateImported, nil
	}
	exists, err := a.Exists(ctx, source, name)
	if err != nil {
		return StateMissing, err
	}
	if exists {
		return StatePending, nil
	}
	return StateMissing, nil
}

// ReadAll reads source/name fully
func ReadAll(ctx context.Context, a Archive, source, name string) ([]byte, error) {
	r, err := a.Open(ctx, source, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteAll stores data as source/name
func WriteAll(ctx context.Context, a Archive, source, name string, data []byte) error {
	w, err := a.Create(ctx, source, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// New returns the archive selected by cfg.Driver
func New(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (Archive, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.Dir, logger), nil
	case "s3":
		s3a, err := NewS3(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := s3a.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3a, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
