package wavio

// Buffer is a decoded PCM stream with interleaved integer samples at the
// source bit depth.
type Buffer struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Data       []int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Slice returns frames [start, stop) sharing the underlying storage. A stop
// past the end is clamped and reported through truncated. A start at or past
// the end yields an empty buffer.
func (b *Buffer) Slice(start, stop int) (clip *Buffer, truncated bool) {
	frames := b.Frames()
	if start < 0 {
		start = 0
	}
	if stop > frames {
		stop = frames
		truncated = true
	}
	if start >= stop {
		start, stop = 0, 0
	}
	ch := b.Channels
	if ch <= 0 {
		ch = 1
	}
	return &Buffer{
		SampleRate: b.SampleRate,
		BitDepth:   b.BitDepth,
		Channels:   ch,
		Data:       b.Data[start*ch : stop*ch],
	}, truncated
}

// Signal mixes the buffer down to mono floats in [-1, 1].
func (b *Buffer) Signal() *Signal {
	frames := b.Frames()
	out := make([]float64, frames)
	scale, offset := pcmScale(b.BitDepth)
	ch := b.Channels
	for i := range frames {
		var sum float64
		for c := range ch {
			sum += (float64(b.Data[i*ch+c]) - offset) / scale
		}
		out[i] = sum / float64(ch)
	}
	return &Signal{SampleRate: b.SampleRate, Samples: out}
}

// Signal is a mono float signal.
type Signal struct {
	SampleRate int
	Samples    []float64
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// pcmScale returns the divisor and zero offset used to map integer PCM
// samples onto [-1, 1]. 8-bit WAV is unsigned.
func pcmScale(bitDepth int) (scale, offset float64) {
	switch {
	case bitDepth <= 0:
		return 1 << 15, 0
	case bitDepth == 8:
		return 1 << 7, 1 << 7
	default:
		return float64(int64(1) << (bitDepth - 1)), 0
	}
}

// quantize16 maps a float sample onto signed 16-bit PCM with clipping.
func quantize16(v float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	scaled := v * 32767
	if scaled >= 0 {
		return int(scaled + 0.5)
	}
	return int(scaled - 0.5)
}
