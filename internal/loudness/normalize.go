// Package loudness rescales clips to a common RMS level.
//
// The gain is target/(rms+epsilon) and the scaled samples are clamped to
// [-1, 1]. Clamping lowers the RMS of clips with high crest factor, so
// normalizing an already normalized clip is only approximately a no-op.
package loudness

import "math"

// Options controls normalization.
type Options struct {
	TargetRMS float64
	Epsilon   float64
}

// DefaultOptions returns a 0.05 RMS target with a 1e-8 epsilon.
func DefaultOptions() Options {
	return Options{TargetRMS: 0.05, Epsilon: 1e-8}
}

// RMS returns the root mean square of samples, or 0 for an empty slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetRMS <= 0 {
		o.TargetRMS = d.TargetRMS
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	return o
}

// Gain returns the multiplier that brings samples to the target RMS.
// Non-positive option fields fall back to DefaultOptions.
func Gain(samples []float64, opts Options) float64 {
	opts = opts.withDefaults()
	return opts.TargetRMS / (RMS(samples) + opts.Epsilon)
}

// Normalize returns a new slice scaled to opts.TargetRMS and clamped to [-1, 1].
func Normalize(samples []float64, opts Options) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	gain := Gain(samples, opts)
	for i, v := range samples {
		out[i] = max(-1, min(1, v*gain))
	}
	return out
}
