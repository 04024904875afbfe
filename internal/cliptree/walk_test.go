package cliptree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestEpisodesWalksInOrder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "clean_audio", "ShowB", "2", "ShowB_2_1.wav"))
	touch(t, filepath.Join(root, "clean_audio", "ShowA", "1", "ShowA_1_2.wav"))
	touch(t, filepath.Join(root, "clean_audio", "ShowA", "1", "ShowA_1_1.wav"))
	touch(t, filepath.Join(root, "clean_audio", "ShowA", "1", "notes.txt"))
	touch(t, filepath.Join(root, "clean_audio", "ShowA", "1", ".ShowA_1_3.wav.tmp-123"))
	touch(t, filepath.Join(root, "stutter_audio", "ShowA", "3", "ShowA_3_9.WAV"))

	folders := []Folder{{Name: "clean_audio", Label: 0}, {Name: "stutter_audio", Label: 1}}
	var got []Episode
	for ep, err := range Episodes(root, folders) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, ep)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 episodes, got %d", len(got))
	}
	if got[0].Show != "ShowA" || got[1].Show != "ShowB" || got[2].Folder.Label != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got[0].Clips) != 2 || filepath.Base(got[0].Clips[0]) != "ShowA_1_1.wav" {
		t.Fatalf("unexpected clips %v", got[0].Clips)
	}
	if len(got[2].Clips) != 1 {
		t.Fatalf("expected upper-case extension to match, got %v", got[2].Clips)
	}
	if rel := got[1].Rel(got[1].Clips[0]); rel != filepath.Join("ShowB", "2", "ShowB_2_1.wav") {
		t.Fatalf("unexpected rel path %q", rel)
	}
}

func TestEpisodesReportsMissingFolder(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "stutter_audio", "S", "1", "S_1_1.wav"))

	var errs, episodes int
	for _, err := range Episodes(root, []Folder{{Name: "clean_audio"}, {Name: "stutter_audio", Label: 1}}) {
		if err != nil {
			if !errors.Is(err, ErrMissingFolder) {
				t.Fatalf("expected missing folder error, got %v", err)
			}
			errs++
			continue
		}
		episodes++
	}
	if errs != 1 || episodes != 1 {
		t.Fatalf("expected 1 error and 1 episode, got %d and %d", errs, episodes)
	}
}

func TestEpisodesIsRestartableAndStoppable(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "f", "A", "1", "a.wav"))
	touch(t, filepath.Join(root, "f", "A", "2", "b.wav"))
	seq := Episodes(root, []Folder{{Name: "f"}})

	for range 2 {
		n := 0
		for range seq {
			n++
		}
		if n != 2 {
			t.Fatalf("expected 2 episodes per pass, got %d", n)
		}
	}

	n := 0
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("expected early stop after 1 episode, got %d", n)
	}
}
