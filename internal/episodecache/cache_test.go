package episodecache

import (
	"errors"
	"testing"

	"stutterprep/internal/pipeline"
	"stutterprep/internal/wavio"
)

type fakeDecoder struct {
	calls map[string]int
	rate  int
	err   error
}

func (f *fakeDecoder) decode(path string) (*wavio.Buffer, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[path]++
	if f.err != nil {
		return nil, f.err
	}
	return &wavio.Buffer{SampleRate: f.rate, BitDepth: 16, Channels: 1, Data: make([]int, 10)}, nil
}

func TestGetDecodesOncePerContiguousRun(t *testing.T) {
	fake := &fakeDecoder{rate: 16000}
	cache := New(16000, WithDecoder(fake.decode))

	for _, path := range []string{"a.wav", "a.wav", "a.wav", "b.wav", "b.wav", "a.wav"} {
		buf, err := cache.Get(path)
		if err != nil {
			t.Fatalf("Get(%s): %v", path, err)
		}
		if buf.Frames() != 10 {
			t.Fatalf("unexpected frames %d", buf.Frames())
		}
	}

	stats := cache.Stats()
	if stats.Decodes != 3 {
		t.Fatalf("expected 3 decodes, got %d", stats.Decodes)
	}
	if stats.Hits != 3 {
		t.Fatalf("expected 3 hits, got %d", stats.Hits)
	}
	if fake.calls["a.wav"] != 2 || fake.calls["b.wav"] != 1 {
		t.Fatalf("unexpected decode calls %v", fake.calls)
	}
}

func TestGetSampleRateMismatchIsFatal(t *testing.T) {
	fake := &fakeDecoder{rate: 44100}
	cache := New(16000, WithDecoder(fake.decode))

	_, err := cache.Get("a.wav")
	if !errors.Is(err, pipeline.ErrSampleRateMismatch) {
		t.Fatalf("expected sample rate mismatch, got %v", err)
	}
	if !pipeline.IsFatal(err) {
		t.Fatal("expected mismatch to be fatal")
	}
}

func TestGetRemembersDecodeFailure(t *testing.T) {
	fake := &fakeDecoder{err: errors.New("corrupt")}
	cache := New(16000, WithDecoder(fake.decode))

	for range 3 {
		if _, err := cache.Get("bad.wav"); !errors.Is(err, pipeline.ErrDecode) {
			t.Fatalf("expected decode error, got %v", err)
		}
	}
	if fake.calls["bad.wav"] != 1 {
		t.Fatalf("expected one decode attempt, got %d", fake.calls["bad.wav"])
	}
}

func TestReset(t *testing.T) {
	fake := &fakeDecoder{rate: 16000}
	cache := New(16000, WithDecoder(fake.decode))
	if _, err := cache.Get("a.wav"); err != nil {
		t.Fatal(err)
	}
	cache.Reset()
	if _, err := cache.Get("a.wav"); err != nil {
		t.Fatal(err)
	}
	if cache.Stats().Decodes != 2 {
		t.Fatalf("expected reset to force a decode, got %d", cache.Stats().Decodes)
	}
}
