// Package episodecache keeps the most recently decoded episode in memory so
// consecutive label rows from the same episode share one decode.
package episodecache

import (
	"fmt"
	"log/slog"

	"stutterprep/internal/logging"
	"stutterprep/internal/pipeline"
	"stutterprep/internal/wavio"
)

// DecodeFunc decodes the full episode at path.
type DecodeFunc func(path string) (*wavio.Buffer, error)

// Stats reports cache activity.
type Stats struct {
	Hits    int
	Decodes int
}

// Cache holds at most one decoded episode. It is not safe for concurrent use;
// each extractor owns its own cache.
type Cache struct {
	decode     DecodeFunc
	sampleRate int
	logger     *slog.Logger

	path string
	buf  *wavio.Buffer
	err  error

	stats Stats
}

// Option configures a Cache.
type Option func(*Cache)

// WithDecoder replaces the WAV decoder, mainly for tests.
func WithDecoder(fn DecodeFunc) Option {
	return func(c *Cache) {
		if fn != nil {
			c.decode = fn
		}
	}
}

// WithLogger attaches a logger for reload events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.NewComponentLogger(logger, "episode-cache")
	}
}

// New returns an empty cache that requires every episode to be sampled at
// sampleRate.
func New(sampleRate int, opts ...Option) *Cache {
	c := &Cache{
		decode:     wavio.Read,
		sampleRate: sampleRate,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the decoded episode at path, decoding it only when path differs
// from the cached entry. A decode failure is remembered for the same path so
// repeated rows do not re-read a broken file. A sample rate other than the
// configured one returns pipeline.ErrSampleRateMismatch.
func (c *Cache) Get(path string) (*wavio.Buffer, error) {
	if path == c.path && (c.buf != nil || c.err != nil) {
		c.stats.Hits++
		return c.buf, c.err
	}

	c.stats.Decodes++
	c.path = path
	c.buf, c.err = nil, nil

	buf, err := c.decode(path)
	if err != nil {
		c.err = pipeline.Wrap(pipeline.ErrDecode, "extract", "decode episode", path, err)
		c.logger.Debug("episode decode failed", logging.String("path", path), logging.Error(err))
		return nil, c.err
	}
	if buf.SampleRate != c.sampleRate {
		c.err = pipeline.Wrap(pipeline.ErrSampleRateMismatch, "extract", "decode episode",
			fmt.Sprintf("%s is %d Hz, expected %d Hz", path, buf.SampleRate, c.sampleRate), nil)
		return nil, c.err
	}
	c.buf = buf
	c.logger.Debug("episode loaded",
		logging.String("path", path),
		logging.Int("frames", buf.Frames()),
		logging.Int("channels", buf.Channels),
	)
	return c.buf, nil
}

// Stats returns hit and decode counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Reset drops the cached entry.
func (c *Cache) Reset() {
	c.path = ""
	c.buf = nil
	c.err = nil
}
