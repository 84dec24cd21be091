package configstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// TOMLStore reads packages from <dir>/<package>.toml. Sections are tables and
// options are keys; arrays of strings are list options.
//
//	[globals]
//	interval = "5000"
type TOMLStore struct {
	dir string
}

// NewTOMLStore creates a store for packages under dir.
func NewTOMLStore(dir string) *TOMLStore {
	return &TOMLStore{dir: dir}
}

// File returns the path of the package file.
func (s *TOMLStore) File(pkg string) string {
	return filepath.Join(s.dir, pkg+".toml")
}

// Get returns the option at p. Indexed section references address arrays of tables.
func (s *TOMLStore) Get(p Path) (Option, error) {
	data, err := os.ReadFile(s.File(p.Package))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Option{}, fmt.Errorf("%w: package %q", ErrNotFound, p.Package)
		}
		return Option{}, fmt.Errorf("failed to read package %q: %w", p.Package, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Option{}, fmt.Errorf("package %q: %w", p.Package, err)
	}

	section, ok := tomlSection(doc, p)
	if !ok {
		return Option{}, fmt.Errorf("%w: section %q in package %q", ErrNotFound, p.Section, p.Package)
	}

	raw, ok := section[p.Option]
	if !ok {
		return Option{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	switch v := raw.(type) {
	case string:
		return Option{Name: p.Option, Values: []string{v}}, nil
	case []any:
		opt := Option{Name: p.Option, List: true}
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return Option{}, fmt.Errorf("%w: %s has non-string list item", ErrWrongType, p)
			}
			opt.Values = append(opt.Values, str)
		}
		return opt, nil
	default:
		return Option{}, fmt.Errorf("%w: %s is %T, want string", ErrWrongType, p, raw)
	}
}

func tomlSection(doc map[string]any, p Path) (map[string]any, bool) {
	if p.Index == nil {
		sec, ok := doc[p.Section].(map[string]any)
		return sec, ok
	}

	tables, ok := doc[p.Section].([]any)
	if !ok {
		return nil, false
	}
	idx := *p.Index
	if idx < 0 {
		idx += len(tables)
	}
	if idx < 0 || idx >= len(tables) {
		return nil, false
	}
	sec, ok := tables[idx].(map[string]any)
	return sec, ok
}
