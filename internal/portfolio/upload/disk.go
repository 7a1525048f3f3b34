package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmorocode/portfolio-sistema/pkg/idx"
)

// Disk stores files under a root directory with one subdirectory per
// kind.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	for _, kind := range []Kind{KindProject, KindCover} {
		if err := os.MkdirAll(filepath.Join(root, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("upload: create dir: %w", err)
		}
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Save(kind Kind, originalName string, r io.Reader) (string, error) {
	// Keep only the extension; the rest of the client name is discarded.
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	storedName := idx.New().String() + ext

	path := filepath.Join(d.root, string(kind), storedName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("upload: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("upload: close file: %w", err)
	}

	return storedName, nil
}

func (d *Disk) Open(kind Kind, storedName string) (io.ReadSeekCloser, int64, error) {
	path, err := d.safePath(kind, storedName)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("upload: open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("upload: stat file: %w", err)
	}

	return f, info.Size(), nil
}

func (d *Disk) Remove(kind Kind, storedName string) error {
	path, err := d.safePath(kind, storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("upload: remove file: %w", err)
	}
	return nil
}

// safePath rejects stored names that would escape the bucket directory.
func (d *Disk) safePath(kind Kind, storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", ErrNotFound
	}
	return filepath.Join(d.root, string(kind), storedName), nil
}
