package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the scope changes or a percentage bucket is crossed. It backs the
// log-based progress reporter used when no terminal bar is shown.
type ProgressSampler struct {
	bucketSize float64
	lastScope  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 5%) or when the scope changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. Percent can be
// negative to indicate "unknown"; scope is trimmed before comparison.
func (s *ProgressSampler) ShouldLog(percent float64, scope string) bool {
	if s == nil {
		return true
	}
	scope = strings.TrimSpace(scope)
	emit := false
	if scope != "" && scope != s.lastScope {
		s.lastScope = scope
		emit = true
		s.lastBucket = -1
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// ShouldLogCount is ShouldLog for done of total items. An unknown total
// (<= 0) only logs on scope changes.
func (s *ProgressSampler) ShouldLogCount(done, total int, scope string) bool {
	if total <= 0 {
		return s.ShouldLog(-1, scope)
	}
	return s.ShouldLog(float64(done)*100/float64(total), scope)
}

// Reset clears the sampler state (e.g. when a new stage starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastScope = ""
	s.lastBucket = -1
}
