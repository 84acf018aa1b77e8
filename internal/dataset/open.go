package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Open resolves a data source location:
//
//	embedded             bundled sample data
//	http(s)://host/path  HTTPSource
//	sqlite:<path>        SQLiteSource (also any path ending in .db or .sqlite)
//	<dir>                DirSource
//
// The returned closer must be called when the source is no longer used.
func Open(location string) (Source, io.Closer, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "" || location == "embedded":
		return Embedded(), nopCloser{}, nil
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		src, err := NewHTTPSource(location)
		if err != nil {
			return nil, nil, err
		}
		return src, nopCloser{}, nil
	case strings.HasPrefix(location, "sqlite:"):
		return openSQLite(strings.TrimPrefix(location, "sqlite:"))
	case strings.HasSuffix(location, ".db") || strings.HasSuffix(location, ".sqlite"):
		return openSQLite(location)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, nil, fmt.Errorf("data source %q: %w", location, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("data source %q is not a directory", location)
	}
	return &DirSource{Dir: location}, nopCloser{}, nil
}

func openSQLite(path string) (Source, io.Closer, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("sqlite data source needs a path")
	}
	src, err := OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	return src, src, nil
}

// Describe names a source for logs and status output.
func Describe(src Source) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
