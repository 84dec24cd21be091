// Package configstore reads values from the persisted system configuration.
//
// Values are addressed by dotted paths of the form package.section.option, for
// example blink.globals.interval. Sections may also be addressed by type and index
// (blink.@globals[0].interval); a negative index counts from the end.
package configstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound means the package, section, or option does not exist.
	ErrNotFound = errors.New("config entry not found")
	// ErrWrongType means the option exists but is not a single string value.
	ErrWrongType = errors.New("config entry has wrong type")
	// ErrInvalidPath rejects a malformed lookup path.
	ErrInvalidPath = errors.New("invalid config path")
	// ErrInvalidValue means the value could not be parsed for its intended use.
	ErrInvalidValue = errors.New("invalid config value")
)

// Store backend names.
const (
	BackendUCI  = "uci"
	BackendTOML = "toml"
)

// DefaultUCIDir is where OpenWrt keeps its configuration packages.
const DefaultUCIDir = "/etc/config"

// Option is a single option of a section. List options carry several values.
type Option struct {
	Name   string
	Values []string
	List   bool
}

// Store looks up options by path.
type Store interface {
	Get(path Path) (Option, error)
	// File returns the file backing a package.
	File(pkg string) string
}

// Path is a parsed package.section.option address.
type Path struct {
	Package string
	Section string // section name, or type when Index is set
	Index   *int   // set for @type[n] addressing
	Option  string
}

func (p Path) String() string {
	section := p.Section
	if p.Index != nil {
		section = fmt.Sprintf("@%s[%d]", p.Section, *p.Index)
	}
	return p.Package + "." + section + "." + p.Option
}

// ParsePath parses a package.section.option path.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Path{}, fmt.Errorf("%w: %q: want package.section.option", ErrInvalidPath, s)
	}
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("%w: %q: empty element", ErrInvalidPath, s)
		}
	}

	p := Path{Package: parts[0], Section: parts[1], Option: parts[2]}
	if strings.HasPrefix(p.Section, "@") {
		typ, idx, ok := parseIndexed(p.Section[1:])
		if !ok {
			return Path{}, fmt.Errorf("%w: %q: bad section reference %q", ErrInvalidPath, s, p.Section)
		}
		p.Section = typ
		p.Index = &idx
	}
	return p, nil
}

// parseIndexed splits "type[n]".
func parseIndexed(s string) (string, int, bool) {
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, false
	}
	idx, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil {
		return "", 0, false
	}
	return s[:open], idx, true
}

// New creates a store for backend reading packages from dir.
// An empty backend selects UCI; an empty dir selects the backend's default.
func New(backend, dir string) (Store, error) {
	switch backend {
	case "", BackendUCI:
		if dir == "" {
			dir = DefaultUCIDir
		}
		return NewUCIStore(dir), nil
	case BackendTOML:
		if dir == "" {
			dir = "."
		}
		return NewTOMLStore(dir), nil
	default:
		return nil, fmt.Errorf("unknown config store backend %q", backend)
	}
}

// LookupString returns the single string value at path.
func LookupString(s Store, path string) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	opt, err := s.Get(p)
	if err != nil {
		return "", err
	}
	if opt.List || len(opt.Values) != 1 {
		return "", fmt.Errorf("%w: %s is a list", ErrWrongType, p)
	}
	return opt.Values[0], nil
}

// ReadInterval reads a non-negative millisecond count stored as a string at path.
// On any failure it returns def together with the reason.
func ReadInterval(s Store, path string, def int) (int, error) {
	raw, err := LookupString(s, path)
	if err != nil {
		return def, err
	}
	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def, fmt.Errorf("%w: %s = %q is not an integer", ErrInvalidValue, path, raw)
	}
	if ms < 0 {
		return def, fmt.Errorf("%w: %s = %d is negative", ErrInvalidValue, path, ms)
	}
	return ms, nil
}
