package shows

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lower-cases name and removes every whitespace rune.
func Normalize(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	return cases.Lower(language.Und).String(stripped)
}

// SafeName returns name with surrounding whitespace removed and path
// separators replaced so it can be used as a single path element.
func SafeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(strings.TrimSpace(name))
}

// Collision records two directories whose names normalize to the same key.
type Collision struct {
	Key     string
	Kept    string
	Dropped string
}

// Map resolves normalized show names to canonical directory names.
type Map struct {
	byKey      map[string]string
	collisions []Collision
}

// BuildMap indexes dirs by normalized name. When two names collide the later
// one wins and the collision is recorded.
func BuildMap(dirs []string) *Map {
	m := &Map{byKey: make(map[string]string, len(dirs))}
	for _, dir := range dirs {
		key := Normalize(dir)
		if key == "" {
			continue
		}
		if prev, ok := m.byKey[key]; ok && prev != dir {
			m.collisions = append(m.collisions, Collision{Key: key, Kept: dir, Dropped: prev})
		}
		m.byKey[key] = dir
	}
	return m
}

// Discover lists the show directories under root in lexical order and builds
// a Map from them.
func Discover(root string) (*Map, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list show directories: %w", err)
	}
	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	slices.Sort(dirs)
	return BuildMap(dirs), nil
}

// Resolve returns the canonical directory for a label-table show name.
func (m *Map) Resolve(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	dir, ok := m.byKey[Normalize(name)]
	return dir, ok
}

// Len returns the number of distinct normalized shows.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byKey)
}

// Collisions returns the collisions seen while building the map.
func (m *Map) Collisions() []Collision {
	if m == nil {
		return nil
	}
	return slices.Clone(m.collisions)
}
