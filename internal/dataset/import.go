package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"sigs.k8s.io/yaml"
)

// Import copies every dataset document found in fsys into dst. Documents are
// stored under their path without the extension, so "profiles1.json" becomes
// the resource "profiles1". Documents that are neither JSON nor YAML are
// rejected before anything is written for them.
func Import(ctx context.Context, fsys fs.FS, dst *SQLiteSource) ([]string, error) {
	var names []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isKnownExt(path.Ext(p)) {
			return nil
		}

		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		if _, err := yaml.YAMLToJSON(body); err != nil {
			return fmt.Errorf("%s is not a valid document: %w", p, err)
		}

		name := strings.TrimSuffix(p, path.Ext(p))
		if err := dst.Put(ctx, name, body); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return names, err
	}
	return names, nil
}
