// Package cliptree walks processed clip trees laid out as
// <root>/<label folder>/<show>/<episode>/<clip>.wav.
package cliptree

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingFolder is yielded when a configured label folder does not exist.
var ErrMissingFolder = errors.New("label folder missing")

// Folder is a top-level label folder and the class it represents.
type Folder struct {
	Name  string
	Label int
}

// Episode is one <show>/<episode> directory and the clips inside it.
type Episode struct {
	Folder  Folder
	Show    string
	Episode string
	Dir     string
	Clips   []string
}

// Rel returns the path of an episode file relative to its label folder.
func (e Episode) Rel(clip string) string {
	return filepath.Join(e.Show, e.Episode, filepath.Base(clip))
}

// Episodes lazily walks root folder by folder, show by show and episode by
// episode in lexical order. Each call re-reads the tree, so the sequence can
// be ranged over more than once. Problems are yielded as errors with a zero
// Episode and the walk continues with the next entry.
func Episodes(root string, folders []Folder) iter.Seq2[Episode, error] {
	return func(yield func(Episode, error) bool) {
		for _, folder := range folders {
			base := filepath.Join(root, folder.Name)
			showDirs, err := subdirs(base)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					err = fmt.Errorf("%w: %s", ErrMissingFolder, base)
				}
				if !yield(Episode{Folder: folder}, err) {
					return
				}
				continue
			}
			for _, show := range showDirs {
				episodeDirs, err := subdirs(filepath.Join(base, show))
				if err != nil {
					if !yield(Episode{Folder: folder, Show: show}, err) {
						return
					}
					continue
				}
				for _, ep := range episodeDirs {
					dir := filepath.Join(base, show, ep)
					clips, err := wavFiles(dir)
					episode := Episode{Folder: folder, Show: show, Episode: ep, Dir: dir, Clips: clips}
					if !yield(episode, err) {
						return
					}
				}
			}
		}
	}
}

// subdirs returns the names of the directories directly under dir. os.ReadDir
// sorts entries by name.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func wavFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
