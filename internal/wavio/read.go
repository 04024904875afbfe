package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// ErrUnsupported marks WAV files that decode but are not integer PCM.
var ErrUnsupported = errors.New("unsupported wav encoding")

const formatPCM = 1

// Info is the header information of a WAV file.
type Info struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Frames     int
}

// Duration returns the stream length in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// Probe reads the header of the WAV file at path without decoding samples.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()
	d, err := openDecoder(f)
	if err != nil {
		return Info{}, err
	}
	if err := d.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("locate pcm chunk: %w", err)
	}
	info := headerInfo(d)
	frameBytes := info.Channels * ((info.BitDepth + 7) / 8)
	if frameBytes > 0 {
		info.Frames = d.PCMSize / frameBytes
	}
	return info, nil
}

// Read fully decodes the WAV file at path.
func Read(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode fully decodes a WAV stream.
func Decode(r io.ReadSeeker) (*Buffer, error) {
	d, err := openDecoder(r)
	if err != nil {
		return nil, err
	}
	info := headerInfo(d)
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("locate pcm chunk: %w", err)
	}
	if d.PCMSize == 0 {
		return &Buffer{SampleRate: info.SampleRate, BitDepth: info.BitDepth, Channels: info.Channels}, nil
	}
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	return &Buffer{
		SampleRate: info.SampleRate,
		BitDepth:   info.BitDepth,
		Channels:   info.Channels,
		Data:       pcm.Data,
	}, nil
}

// ReadSignal decodes path and mixes it down to a mono float signal.
func ReadSignal(path string) (*Signal, error) {
	buf, err := Read(path)
	if err != nil {
		return nil, err
	}
	return buf.Signal(), nil
}

func openDecoder(r io.ReadSeeker) (*wav.Decoder, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("invalid wav file: %w", err)
		}
		return nil, errors.New("invalid wav file")
	}
	if d.WavAudioFormat != formatPCM {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupported, d.WavAudioFormat)
	}
	if d.NumChans == 0 {
		return nil, fmt.Errorf("%w: zero channels", ErrUnsupported)
	}
	return d, nil
}

func headerInfo(d *wav.Decoder) Info {
	return Info{
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   int(d.NumChans),
	}
}
