package pipeline

import (
	"maps"
	"slices"
	"time"
)

// Outcome classifies what happened to a single item.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Skip and note reasons recorded against items.
const (
	ReasonShowNotFound   = "show_not_found"
	ReasonEpisodeMissing = "episode_missing"
	ReasonEmptyClip      = "empty_clip"
	ReasonTruncated      = "truncated"
	ReasonDecodeFailed   = "decode_failed"
	ReasonWriteFailed    = "write_failed"
	ReasonSampleRate     = "unexpected_sample_rate"
	ReasonEmptyAudio     = "empty_audio"
	ReasonTooShort       = "too_short"
	ReasonSilent         = "silent"
	ReasonNoLabel        = "no_label"
	ReasonBadName        = "unparseable_name"
	ReasonMissingFolder  = "missing_folder"
	ReasonUnreadableDir  = "unreadable_dir"
)

// ItemResult is the typed outcome for one clip or label row.
//
// Reason is set for skipped and failed items. A written item may also carry a
// Reason as a note (for example a truncated clip); notes are counted but the
// item still counts as processed.
type ItemResult struct {
	Item    string
	Outcome Outcome
	Reason  string
	Err     error
}

// Written reports a successful item.
func Written(item string) ItemResult {
	return ItemResult{Item: item, Outcome: OutcomeWritten}
}

// WrittenWithNote reports a successful item that deserves a counted note.
func WrittenWithNote(item, note string) ItemResult {
	return ItemResult{Item: item, Outcome: OutcomeWritten, Reason: note}
}

// Skipped reports an item that was intentionally not produced.
func Skipped(item, reason string, err error) ItemResult {
	return ItemResult{Item: item, Outcome: OutcomeSkipped, Reason: reason, Err: err}
}

// Failed reports an item that errored while being produced.
func Failed(item, reason string, err error) ItemResult {
	return ItemResult{Item: item, Outcome: OutcomeFailed, Reason: reason, Err: err}
}

// Summary aggregates item results for one stage run.
type Summary struct {
	Stage     string
	Processed int
	Skipped   int
	Failed    int
	Reasons   map[string]int
	Notes     map[string]int
	Issues    []ItemResult
	Started   time.Time
	Finished  time.Time
}

// NewSummary returns an empty summary for stage.
func NewSummary(stage string) Summary {
	return Summary{
		Stage:   stage,
		Reasons: make(map[string]int),
		Notes:   make(map[string]int),
		Started: time.Now(),
	}
}

// Add folds a single item result into the summary.
func (s *Summary) Add(r ItemResult) {
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	if s.Notes == nil {
		s.Notes = make(map[string]int)
	}
	switch r.Outcome {
	case OutcomeWritten:
		s.Processed++
		if r.Reason != "" {
			s.Notes[r.Reason]++
		}
		return
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	if r.Reason != "" {
		s.Reasons[r.Reason]++
	}
	s.Issues = append(s.Issues, r)
}

// Merge folds another summary's counts into s.
func (s *Summary) Merge(other Summary) {
	s.Processed += other.Processed
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	if s.Notes == nil {
		s.Notes = make(map[string]int)
	}
	for k, v := range other.Reasons {
		s.Reasons[k] += v
	}
	for k, v := range other.Notes {
		s.Notes[k] += v
	}
	s.Issues = append(s.Issues, other.Issues...)
}

// Total returns the number of items the stage looked at.
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}

// Duration returns the wall time between Started and Finished.
func (s Summary) Duration() time.Duration {
	if s.Started.IsZero() || s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// ReasonKeys returns the skip reasons in stable order.
func (s Summary) ReasonKeys() []string {
	return slices.Sorted(maps.Keys(s.Reasons))
}

// NoteKeys returns the note names in stable order.
func (s Summary) NoteKeys() []string {
	return slices.Sorted(maps.Keys(s.Notes))
}
