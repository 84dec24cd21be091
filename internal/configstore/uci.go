package configstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UCIStore reads OpenWrt UCI packages from a directory, one file per package.
// Files are parsed on every lookup so edits are picked up without a reload.
type UCIStore struct {
	dir string
}

// NewUCIStore creates a store for packages under dir.
func NewUCIStore(dir string) *UCIStore {
	return &UCIStore{dir: dir}
}

// File returns the path of the package file.
func (s *UCIStore) File(pkg string) string {
	return filepath.Join(s.dir, pkg)
}

// Get returns the option at p.
func (s *UCIStore) Get(p Path) (Option, error) {
	f, err := os.Open(s.File(p.Package))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Option{}, fmt.Errorf("%w: package %q", ErrNotFound, p.Package)
		}
		return Option{}, fmt.Errorf("failed to open package %q: %w", p.Package, err)
	}
	defer f.Close()

	sections, err := ParseUCI(f)
	if err != nil {
		return Option{}, fmt.Errorf("package %q: %w", p.Package, err)
	}
	return lookup(sections, p)
}

// Section is one parsed config block.
type Section struct {
	Type    string
	Name    string // empty for anonymous sections
	Options []Option
}

func (s *Section) option(name string) *Option {
	for i := range s.Options {
		if s.Options[i].Name == name {
			return &s.Options[i]
		}
	}
	return nil
}

// ParseUCI parses UCI syntax:
//
//	config <type> ['<name>']
//		option <name> '<value>'
//		list <name> '<value>'
func ParseUCI(r io.Reader) ([]Section, error) {
	var sections []Section
	current := -1

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields, err := tokenize(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "package":
			// Single-package files may name themselves; nothing to record.
		case "config":
			if len(fields) < 2 || len(fields) > 3 {
				return nil, fmt.Errorf("line %d: config wants a type and an optional name", lineNo)
			}
			sec := Section{Type: fields[1]}
			if len(fields) == 3 {
				sec.Name = fields[2]
			}
			sections = append(sections, sec)
			current = len(sections) - 1
		case "option", "list":
			if current < 0 {
				return nil, fmt.Errorf("line %d: %s outside of a config section", lineNo, fields[0])
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: %s wants a name and a value", lineNo, fields[0])
			}
			sec := &sections[current]
			name, value := fields[1], fields[2]
			if fields[0] == "option" {
				if opt := sec.option(name); opt != nil {
					opt.Values = []string{value}
					opt.List = false
				} else {
					sec.Options = append(sec.Options, Option{Name: name, Values: []string{value}})
				}
				continue
			}
			if opt := sec.option(name); opt != nil && opt.List {
				opt.Values = append(opt.Values, value)
			} else if opt != nil {
				opt.Values = []string{value}
				opt.List = true
			} else {
				sec.Options = append(sec.Options, Option{Name: name, Values: []string{value}, List: true})
			}
		default:
			return nil, fmt.Errorf("line %d: unknown keyword %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

func lookup(sections []Section, p Path) (Option, error) {
	var sec *Section
	if p.Index != nil {
		var ofType []*Section
		for i := range sections {
			if sections[i].Type == p.Section {
				ofType = append(ofType, &sections[i])
			}
		}
		idx := *p.Index
		if idx < 0 {
			idx += len(ofType)
		}
		if idx >= 0 && idx < len(ofType) {
			sec = ofType[idx]
		}
	} else {
		// A repeated section name shadows the earlier one.
		for i := range sections {
			if sections[i].Name == p.Section {
				sec = &sections[i]
			}
		}
	}
	if sec == nil {
		return Option{}, fmt.Errorf("%w: section %q in package %q", ErrNotFound, p.Section, p.Package)
	}

	opt := sec.option(p.Option)
	if opt == nil {
		return Option{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return *opt, nil
}

// tokenize splits a line into words, honoring quotes and # comments.
func tokenize(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inWord  bool
		quote   byte
		escaped bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case quote != 0:
			switch {
			case c == quote:
				quote = 0
			case c == '\\' && quote == '"':
				escaped = true
			default:
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inWord = true
		case c == '\\':
			escaped = true
			inWord = true
		case c == '#':
			i = len(line)
		case c == ' ' || c == '\t' || c == '\r':
			if inWord {
				fields = append(fields, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteByte(c)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
