// Package interest discovers interest rule files, parses them and pays
// interest to every known player on each unit's cron schedule.
package interest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads rule units from a directory tree.
type Loader struct {
	Root string
}

func NewLoader(root string) *Loader {
	return &Loader{Root: root}
}

func (l *Loader) Discover() ([]UnitRef, bool, error) {
	return Discover(l.Root)
}

func (l *Loader) Parse(ref UnitRef) (RuleSet, error) {
	return Parse(ref)
}

// Find resolves a unit by name.
func (l *Loader) Find(name string) (UnitRef, error) {
	refs, _, err := l.Discover()
	if err != nil {
		return UnitRef{}, err
	}

	name = filepath.ToSlash(name)
	for _, ref := range refs {
		if ref.Name == name {
			return ref, nil
		}
	}

	return UnitRef{}, fmt.Errorf("unit %q not found under %s: %w", name, l.Root, fs.ErrNotExist)
}

// Discover walks root recursively and returns every .yml or .yaml file.
// A missing root is created and reported with created=true.
// Unreadable subdirectories are skipped.
func Discover(root string) ([]UnitRef, bool, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		err = os.MkdirAll(root, 0o755)
		if err != nil {
			return nil, false, fmt.Errorf("create rules dir: %w", err)
		}

		return nil, true, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("stat rules dir: %w", err)
	}

	if !info.IsDir() {
		return nil, false, fmt.Errorf("rules root %s is not a directory", root)
	}

	var refs []UnitRef

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			if d != nil && d.IsDir() {
				return fs.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || !isRuleFile(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		refs = append(refs, UnitRef{Name: filepath.ToSlash(rel), Path: path})

		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("walk rules dir: %w", err)
	}

	return refs, false, nil
}

func isRuleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return true
	default:
		return false
	}
}

// Parse reads and validates one unit.
func Parse(ref UnitRef) (RuleSet, error) {
	raw, err := os.ReadFile(ref.Path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read unit %s: %w", ref.Name, err)
	}

	return decodeUnit(ref, raw)
}
