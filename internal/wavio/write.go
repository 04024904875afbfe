package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"stutterprep/internal/fileutil"
)

// Write atomically stores buf at path at its own bit depth.
func Write(path string, buf *Buffer) error {
	if buf == nil {
		return fmt.Errorf("write %s: nil buffer", path)
	}
	return fileutil.WriteAtomic(path, 0o644, func(f *os.File) error {
		return encode(f, buf)
	})
}

// WriteSignal atomically stores sig at path as mono 16-bit PCM.
func WriteSignal(path string, sig *Signal) error {
	if sig == nil {
		return fmt.Errorf("write %s: nil signal", path)
	}
	data := make([]int, len(sig.Samples))
	for i, v := range sig.Samples {
		data[i] = quantize16(v)
	}
	return Write(path, &Buffer{
		SampleRate: sig.SampleRate,
		BitDepth:   16,
		Channels:   1,
		Data:       data,
	})
}

func encode(f *os.File, buf *Buffer) error {
	enc := wav.NewEncoder(f, buf.SampleRate, buf.BitDepth, buf.Channels, formatPCM)
	pcm := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           buf.Data,
		SourceBitDepth: buf.BitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("encode pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
