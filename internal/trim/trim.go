// Package trim removes leading and trailing silence from clips.
//
// Energy is measured on centered frames: frame t covers the FrameLength
// samples around t*HopLength, with zero padding past either end. A frame is
// non-silent when its mean power is within TopDB of the loudest frame. The
// first and last non-silent frames bound the kept region, which is then
// tightened sample by sample: an edge sample is dropped only while both its
// own power and the mean power of the RefineLength samples centered on it are
// at or below the same threshold. Inside the non-silent frames the kept
// region covers every sample louder than the threshold and extends at most
// RefineLength/2 samples past the outermost ones.
package trim

import (
	"fmt"
	"math"

	"stutterprep/internal/pipeline"
)

// Rejection causes. All of them satisfy errors.Is(err, pipeline.ErrRejected).
var (
	ErrEmpty    = fmt.Errorf("%w: empty clip", pipeline.ErrRejected)
	ErrSilent   = fmt.Errorf("%w: no audio above threshold", pipeline.ErrRejected)
	ErrTooShort = fmt.Errorf("%w: trimmed clip too short", pipeline.ErrRejected)
)

// amin is the power floor applied before comparing against the threshold.
const amin = 1e-10

// Options controls trimming.
type Options struct {
	TopDB       float64
	MinDuration float64
	FrameLength int
	HopLength   int
	// RefineLength is the local window used to place the boundaries.
	RefineLength int
}

// DefaultOptions returns 30 dB, 0.1 s, 2048-sample frames, 512-sample hops
// and a 32-sample refinement window.
func DefaultOptions() Options {
	return Options{TopDB: 30, MinDuration: 0.1, FrameLength: 2048, HopLength: 512, RefineLength: 32}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TopDB <= 0 {
		o.TopDB = d.TopDB
	}
	if o.MinDuration < 0 {
		o.MinDuration = 0
	}
	if o.FrameLength <= 0 {
		o.FrameLength = d.FrameLength
	}
	if o.HopLength <= 0 {
		o.HopLength = d.HopLength
	}
	if o.RefineLength <= 0 {
		o.RefineLength = d.RefineLength
	}
	return o
}

// Result is the kept region [Start, End) of the input.
type Result struct {
	Samples []float64
	Start   int
	End     int
}

// Trim returns the non-silent region of samples. Empty input, all-silent
// input, and results shorter than MinDuration seconds are rejected.
func Trim(samples []float64, sampleRate int, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if len(samples) == 0 {
		return Result{}, ErrEmpty
	}
	start, end := Bounds(samples, opts)
	if end <= start {
		return Result{}, ErrSilent
	}
	kept := end - start
	if minSamples := MinSamples(opts.MinDuration, sampleRate); kept < minSamples {
		return Result{}, fmt.Errorf("%w: %d samples, need %d", ErrTooShort, kept, minSamples)
	}
	return Result{Samples: samples[start:end], Start: start, End: end}, nil
}

// MinSamples converts a duration floor to a sample count.
func MinSamples(seconds float64, sampleRate int) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(math.Ceil(seconds*float64(sampleRate) - 1e-9))
}

// Bounds returns the [start, end) sample range to keep. It returns (0, 0)
// when no frame carries any energy.
func Bounds(samples []float64, opts Options) (start, end int) {
	opts = opts.withDefaults()
	prefix := powerPrefix(samples)
	power := framePower(prefix, opts.FrameLength, opts.HopLength)
	ref := 0.0
	for _, p := range power {
		ref = max(ref, p)
	}
	if ref <= 0 {
		return 0, 0
	}
	threshold := max(amin, ref) * math.Pow(10, -opts.TopDB/10)

	first, last := -1, -1
	for t, p := range power {
		if max(amin, p) > threshold {
			if first < 0 {
				first = t
			}
			last = t
		}
	}
	if first < 0 {
		return 0, 0
	}
	start = first * opts.HopLength
	end = min(len(samples), (last+1)*opts.HopLength)

	quiet := func(i int) bool {
		return samples[i]*samples[i] <= threshold && localPower(prefix, i, opts.RefineLength) <= threshold
	}
	for start < end && quiet(start) {
		start++
	}
	for end > start && quiet(end-1) {
		end--
	}
	return start, end
}

// localPower is the mean power of the w samples centered on i, with zeros
// outside the signal.
func localPower(prefix []float64, i, w int) float64 {
	lo := i - w/2
	hi := lo + w
	lo = max(lo, 0)
	hi = min(hi, len(prefix)-1)
	if hi <= lo {
		return 0
	}
	return (prefix[hi] - prefix[lo]) / float64(w)
}

// FramePower returns the mean power of each centered frame. There are
// 1 + len(samples)/hop frames; frame t spans
// [t*hop - frame/2, t*hop - frame/2 + frame) with zeros outside the signal.
func FramePower(samples []float64, frame, hop int) []float64 {
	return framePower(powerPrefix(samples), frame, hop)
}

// powerPrefix returns running sums of squared samples; prefix[i] covers
// samples[:i].
func powerPrefix(samples []float64) []float64 {
	prefix := make([]float64, len(samples)+1)
	for i, v := range samples {
		prefix[i+1] = prefix[i] + v*v
	}
	return prefix
}

func framePower(prefix []float64, frame, hop int) []float64 {
	size := len(prefix) - 1
	if size <= 0 || frame <= 0 || hop <= 0 {
		return nil
	}
	n := 1 + size/hop
	half := frame / 2
	power := make([]float64, n)
	for t := range n {
		lo := t*hop - half
		hi := lo + frame
		lo = max(lo, 0)
		hi = min(hi, size)
		if hi > lo {
			power[t] = (prefix[hi] - prefix[lo]) / float64(frame)
		}
	}
	return power
}
