package manager

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"arbiter-hq/arbiter/pkg/apl/ast"
	"arbiter-hq/arbiter/pkg/apl/parser"
)

// Loader reads policy set files from the file system.
// It supports single files and directory trees.
type Loader struct {
	parser *parser.Parser
}

// NewLoader creates a new loader.
func NewLoader(p *parser.Parser) *Loader {
	if p == nil {
		p = parser.NewParser()
	}
	return &Loader{parser: p}
}

// LoadFile loads a single policy set file.
func (l *Loader) LoadFile(path string) (*ast.PolicySet, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	return l.parser.ParseBytes(data, path)
}

// LoadDir loads every .yaml/.yml policy set file under dir (recursively,
// skipping hidden entries) in deterministic path order. Two files declaring
// the same set name is an error.
func (l *Loader) LoadDir(dir string) ([]*ast.PolicySet, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to scan policy directory", Cause: err}
	}
	sort.Strings(paths)

	sets := make([]*ast.PolicySet, 0, len(paths))
	sources := make(map[string]string, len(paths))
	for _, path := range paths {
		set, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if first, ok := sources[set.Name]; ok {
			return nil, &DuplicateSetError{Name: set.Name, FirstFile: first, SecondFile: path}
		}
		sources[set.Name] = path
		sets = append(sets, set)
	}
	return sets, nil
}
