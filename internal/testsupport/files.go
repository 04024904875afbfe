package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stutterprep/internal/wavio"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLabels writes a label table with the given data rows under the
// standard header. Each row is Show,EpId,ClipId,Start,Stop followed by the
// five flag values.
func WriteLabels(t testing.TB, path string, rows ...string) {
	t.Helper()

	header := "Show,EpId,ClipId,Start,Stop,Prolongation,Block,SoundRep,WordRep,DifficultToUnderstand"
	WriteFile(t, path, header+"\n"+strings.Join(rows, "\n")+"\n")
}

// WriteWAV writes a mono PCM file with the given integer samples.
func WriteWAV(t testing.TB, path string, sampleRate, bitDepth int, data []int) {
	t.Helper()

	buf := &wavio.Buffer{SampleRate: sampleRate, BitDepth: bitDepth, Channels: 1, Data: data}
	if err := wavio.Write(path, buf); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// WriteSignal writes a mono 16-bit file from float samples.
func WriteSignal(t testing.TB, path string, sampleRate int, samples []float64) {
	t.Helper()

	if err := wavio.WriteSignal(path, &wavio.Signal{SampleRate: sampleRate, Samples: samples}); err != nil {
		t.Fatalf("write signal %s: %v", path, err)
	}
}

// Ramp returns n 16-bit samples whose value encodes their index, so slices
// can be checked for exact offsets.
func Ramp(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i%32000 - 16000
	}
	return out
}

// Tone returns n samples of a sine at freq Hz with the given peak amplitude.
func Tone(n, sampleRate int, freq, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence returns n zero samples.
func Silence(n int) []float64 {
	return make([]float64, n)
}

// Concat joins float sample slices.
func Concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
