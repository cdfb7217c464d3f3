// Package modules resolves import statements to script files on disk.
package modules

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/zanderlewis/weather/pkg/evaluator"
)

// Ext is the file extension of Weather scripts.
const Ext = ".wx"

// ErrNotFound is returned when no search directory holds the requested module.
var ErrNotFound = errors.New("module not found")

// Digest returns the hex BLAKE3 digest of a script's source.
func Digest(source string) string {
	h := blake3.New()
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// FileImporter loads modules from a list of directories, searched in order.
type FileImporter struct {
	dirs []string
}

// NewFileImporter creates an importer searching dirs in order.
func NewFileImporter(dirs ...string) *FileImporter {
	return &FileImporter{dirs: dirs}
}

// Dirs returns the search directories.
func (f *FileImporter) Dirs() []string {
	return f.dirs
}

// Import reads name (with ".wx" appended when it has no extension) from the
// first search directory that contains it.
func (f *FileImporter) Import(ctx context.Context, name string) (*evaluator.Module, error) {
	rel, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	for _, dir := range f.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, rel)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		source := string(data)
		return &evaluator.Module{
			Name:     name,
			Filename: path,
			Source:   source,
			Digest:   Digest(source),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s (searched %s)", ErrNotFound, rel, strings.Join(f.dirs, ", "))
}

// cleanName turns a module name into a relative file path. Names may not be
// absolute or climb out of the search directory.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty module name")
	}
	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("module name %q must be a relative path inside the module path", name)
	}
	if filepath.Ext(rel) == "" {
		rel += Ext
	}
	return rel, nil
}
