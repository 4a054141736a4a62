// Package fsrepo serves protocol documents from a directory tree.
//
// Every *.yaml / *.yml file under the root is a protocol; its name is the
// root-relative path with the extension stripped, so "sweeps/led-iv.yaml"
// is addressed as "sweeps/led-iv".
package fsrepo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/optolab/ivctl/pkg/domain"
)

// Repository implements ports.ProtocolRepository over a directory.
type Repository struct {
	root string
}

// New creates a Repository rooted at dir.
func New(dir string) *Repository {
	return &Repository{root: dir}
}

// Load reads the document for name, trying both YAML extensions.
func (r *Repository) Load(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &domain.NotFoundError{Name: name}
	}
	for _, ext := range []string{".yaml", ".yml"} {
		raw, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(name)+ext))
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &domain.NotFoundError{Name: name}
}

// List walks the tree and returns all protocol names in sorted order.
func (r *Repository) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(r.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		rel, err := filepath.Rel(r.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(strings.TrimSuffix(rel, ext))
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
