package store

import (
	"fmt"
	"path"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

// NewOsFs sandboxes root on the real filesystem, creating it when missing.
func NewOsFs(root string) (afero.Fs, error) {
	fs := afero.NewOsFs()
	if exists, err := afero.DirExists(fs, root); err != nil {
		return nil, err
	} else if !exists {
		if err := fs.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("create %s failed: %w", root, err)
		}
	}
	return afero.NewBasePathFs(fs, root), nil
}

func cleanName(name string) (string, error) {
	base := path.Base(path.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || base != name {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return base, nil
}

// WriteAtomic writes bs next to name and renames it into place, so readers
// never observe a partial file.
func WriteAtomic(fs afero.Fs, name string, bs []byte) (err error) {
	dir, base := path.Split(name)
	if dir == "" {
		dir = "."
	}

	f, err := afero.TempFile(fs, dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file failed: %w", err)
	}

	renamed := false
	defer func() {
		if !renamed {
			_ = fs.Remove(f.Name())
		}
	}()

	if _, err := f.Write(bs); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s failed: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s failed: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s failed: %w", name, err)
	}

	if err := fs.Chmod(f.Name(), 0644); err != nil {
		return fmt.Errorf("chmod %s failed: %w", name, err)
	}

	if err := fs.Rename(f.Name(), name); err != nil {
		return fmt.Errorf("rename %s failed: %w", name, err)
	}
	renamed = true

	return nil
}
