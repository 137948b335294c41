package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

// File reads file:// sources from the local filesystem. Useful for local
// development against checked-out collection documents.
type File struct{}

// NewFile creates a File reader.
func NewFile() *File {
	return &File{}
}

// Read returns the contents of the file named by u. Both file:///abs/path
// and file://relative/path forms are accepted.
func (File) Read(_ context.Context, u *url.URL) ([]byte, error) {
	path := u.Host + u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path == "" {
		return nil, fmt.Errorf("file source %q: path is required", u.String())
	}
	data, err := os.ReadFile(filepath.Clean(filepath.FromSlash(path)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return nil, fmt.Errorf("read file source: %w", err)
	}
	return data, nil
}
