package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Overlay reads from a directory on disk first and falls back to fallback.
// It lets edited sounds shadow the embedded copies while developing.
type Overlay struct {
	Dir      string
	Fallback fs.FS
}

// NewOverlay returns an Overlay rooted at dir. An empty dir reads only from
// fallback.
func NewOverlay(dir string, fallback fs.FS) *Overlay {
	return &Overlay{Dir: dir, Fallback: fallback}
}

func (o *Overlay) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if o.Dir != "" {
		f, err := os.Open(filepath.Join(o.Dir, filepath.FromSlash(name)))
		if err == nil {
			return f, nil
		}
		if o.Fallback == nil || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if o.Fallback == nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return o.Fallback.Open(name)
}

// cleanPath normalizes manifest-relative paths to fs.FS form.
func cleanPath(p string) string {
	if p == "" {
		return ""
	}
	s := path.Clean(filepath.ToSlash(p))
	s = strings.TrimPrefix(s, "./")
	return strings.TrimPrefix(s, "/")
}
