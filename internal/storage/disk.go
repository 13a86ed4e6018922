package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk stores uploaded images as flat files under one directory. Handles
// are uuid-prefixed file names, so a handle never reveals or depends on
// the uploader-supplied name beyond its extension.
type Disk struct {
	dir string
}

// NewDisk creates the upload directory if needed and returns a store
// rooted at it.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the root directory, for static file serving.
func (d *Disk) Dir() string {
	return d.dir
}

// Save writes the payload and returns its handle.
func (d *Disk) Save(data []byte, suggestedName string) (string, error) {
	handle := uuid.NewString() + sanitizeExt(suggestedName)
	if err := os.WriteFile(filepath.Join(d.dir, handle), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return handle, nil
}

// Delete removes the file behind a handle. Deleting a missing handle is
// not an error.
func (d *Disk) Delete(handle string) error {
	if handle != filepath.Base(handle) {
		return fmt.Errorf("invalid handle %q", handle)
	}
	if err := os.Remove(filepath.Join(d.dir, handle)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// sanitizeExt keeps only a short, dot-prefixed, alphanumeric extension.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
