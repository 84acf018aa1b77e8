// Package dataset resolves hierarchy keys to decoded datasets. A Source
// supplies raw documents by resource name; loaders decode them against a
// record schema.
package dataset

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a source has no document for a resource.
var ErrNotFound = errors.New("dataset not found")

// Source fetches the raw document stored under a resource name such as
// "profiles1" or "campaignsData/campaignsp1".
type Source interface {
	Fetch(ctx context.Context, resource string) ([]byte, error)
}

// Extensions are tried in order when a resource name has no extension.
var Extensions = []string{".json", ".yaml", ".yml"}

//go:embed sample
var sample embed.FS

// Embedded returns the sample data bundled with the binary.
func Embedded() *FSSource {
	sub, err := fs.Sub(sample, "sample")
	if err != nil {
		panic(err)
	}
	return &FSSource{FS: sub, Name: "embedded"}
}

// FSSource reads documents from any fs.FS.
type FSSource struct {
	FS   fs.FS
	Name string
}

func (s *FSSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates(name) {
		data, err := fs.ReadFile(s.FS, candidate)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", candidate, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", resource, ErrNotFound)
}

func (s *FSSource) String() string {
	if s.Name != "" {
		return s.Name
	}
	return "fs"
}

// DirSource reads documents from a directory on disk.
type DirSource struct {
	Dir string
}

func (s *DirSource) Fetch(ctx context.Context, resource string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates(name) {
		data, err := os.ReadFile(filepath.Join(s.Dir, filepath.FromSlash(candidate)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", candidate, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", resource, ErrNotFound)
}

func (s *DirSource) String() string { return s.Dir }

// cleanResource rejects names that would escape the source root.
func cleanResource(resource string) (string, error) {
	name := path.Clean(strings.TrimPrefix(resource, "/"))
	if resource == "" || name == "." || !fs.ValidPath(name) {
		return "", fmt.Errorf("invalid resource name %q", resource)
	}
	return name, nil
}

func candidates(name string) []string {
	if path.Ext(name) != "" && isKnownExt(path.Ext(name)) {
		return []string{name}
	}
	out := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		out = append(out, name+ext)
	}
	return out
}

func isKnownExt(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
