package stage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stutterprep/internal/cleaning"
	"stutterprep/internal/config"
	"stutterprep/internal/ledger"
	"stutterprep/internal/manifest"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/progress"
	"stutterprep/internal/stage"
	"stutterprep/internal/stageexec"
	"stutterprep/internal/testsupport"
	"stutterprep/internal/wavio"
)

func seedCorpus(t *testing.T, cfg *config.Config) {
	t.Helper()
	episode := testsupport.Concat(
		testsupport.Silence(8000),
		testsupport.Tone(16000, 16000, 440, 0.3),
		testsupport.Silence(8000),
		testsupport.Tone(8000, 16000, 440, 0.3),
		testsupport.Silence(8000),
	)
	testsupport.WriteSignal(t, filepath.Join(cfg.Paths.RawAudioDir, "He Stutters", "0.wav"), 16000, episode)
	testsupport.WriteLabels(t, cfg.Labels.Path,
		"HeStutters,0,1,4000,28000,0,0,0,0,0",
		"HeStutters,0,2,36000,60000,0,1,0,0,0",
		"Unknown Show,0,1,0,1000,0,0,0,0,0",
		"HeStutters,0,3,abc,1000,0,0,0,0,0",
	)
}

func run(t *testing.T, store *ledger.Store, h stage.Handler) pipeline.Summary {
	t.Helper()
	res, err := stageexec.Run(context.Background(), stageexec.Options{Ledger: store, Handler: h})
	if err != nil {
		t.Fatalf("%s: %v", h.Name(), err)
	}
	return res.Summary
}

func TestPipelineEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedCorpus(t, cfg)
	store := testsupport.MustOpenLedger(t, cfg)

	extracted := run(t, store, stage.NewExtract(cfg, false, progress.Nop{}))
	if extracted.Processed != 2 {
		t.Fatalf("expected 2 clips, got %+v", extracted)
	}
	if extracted.Reasons[pipeline.ReasonShowNotFound] != 1 || extracted.Notes[pipeline.ReasonTruncated] != 1 {
		t.Fatalf("unexpected extract reasons %v notes %v", extracted.Reasons, extracted.Notes)
	}
	if extracted.Skipped != 2 {
		t.Fatalf("expected unknown show and rejected row skipped, got %d", extracted.Skipped)
	}
	clip := filepath.Join(cfg.Paths.ClipsDir, "stutter_audio", "He Stutters", "0", "He Stutters_0_2.wav")
	info, err := wavio.Probe(clip)
	if err != nil {
		t.Fatalf("probe truncated clip: %v", err)
	}
	if info.Frames != 12000 {
		t.Fatalf("expected truncated clip of 12000 frames, got %d", info.Frames)
	}

	trimmed := run(t, store, stage.NewCleaning(cfg, cleaning.ModeTrim, "", "", nil))
	if trimmed.Processed != 2 {
		t.Fatalf("expected 2 trimmed clips, got %+v", trimmed)
	}
	normalized := run(t, store, stage.NewCleaning(cfg, cleaning.ModeNormalize, "", "", nil))
	if normalized.Processed != 2 {
		t.Fatalf("expected 2 normalized clips, got %+v", normalized)
	}

	built := run(t, store, stage.NewManifest(cfg, "", "", "", nil))
	if built.Processed != 2 {
		t.Fatalf("expected 2 manifest rows, got %+v", built)
	}
	data, err := os.ReadFile(cfg.Paths.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "path,label,duration" {
		t.Fatalf("unexpected manifest:\n%s", data)
	}
	for _, line := range lines[1:] {
		if !strings.Contains(line, filepath.Join("normalized_audio", "stutter_audio", "He Stutters", "0")) || !strings.Contains(line, ",1,") {
			t.Fatalf("unexpected manifest row %q", line)
		}
	}

	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 4 ledger runs, got %d", len(runs))
	}
	for _, r := range runs {
		if r.Status != ledger.StatusCompleted {
			t.Fatalf("run %s ended %s", r.Stage, r.Status)
		}
	}
}

func TestExtractCleanOnlyWritesCleanFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedCorpus(t, cfg)

	summary := run(t, nil, stage.NewExtract(cfg, true, nil))
	if summary.Processed != 1 {
		t.Fatalf("expected only the unflagged clip, got %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.ClipsDir, "clean_audio", "He Stutters", "0", "He Stutters_0_1.wav")); err != nil {
		t.Fatalf("expected clean clip: %v", err)
	}
}

func TestManifestFoldsUsesLabelTable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithManifestFormat(manifest.FormatFolds))
	seedCorpus(t, cfg)

	run(t, nil, stage.NewExtract(cfg, false, nil))
	out := filepath.Join(testsupport.BaseDir(cfg), "folds.csv")
	summary := run(t, nil, stage.NewManifest(cfg, cfg.Paths.ClipsDir, out, "", nil))
	if summary.Processed != 2 {
		t.Fatalf("expected 2 rows, got %+v", summary)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(data), "He Stutters_0_1.wav,stutter_audio,He Stutters,0,4000,28000,1") {
		t.Fatalf("unexpected folds manifest:\n%s", data)
	}
}

func TestCheckReportsMissingInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	h := stage.Check(stage.NewExtract(cfg, false, nil))
	if h.Ready {
		t.Fatal("expected extract to be unready without labels or raw audio")
	}
	if !strings.Contains(h.Detail, "Label table") || !strings.Contains(h.Detail, "Raw audio directory") {
		t.Fatalf("unexpected detail %q", h.Detail)
	}

	seedCorpus(t, cfg)
	if h := stage.Check(stage.NewExtract(cfg, false, nil)); !h.Ready {
		t.Fatalf("expected ready after seeding, got %q", h.Detail)
	}
}
