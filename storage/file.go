package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// File stores each slot as a JSON file under a directory.
type File struct {
	fs  afero.Fs
	dir string
}

// NewFile creates a file-backed storage rooted at dir, creating it if needed
func NewFile(fs afero.Fs, dir string) (*File, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &File{fs: fs, dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(f.fs, f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read slot %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes the value to a temporary file and renames it over the slot file
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := f.path(key)
	tmp := target + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", key, err)
	}
	if err := f.fs.Rename(tmp, target); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to commit slot %s: %w", key, err)
	}
	return nil
}
