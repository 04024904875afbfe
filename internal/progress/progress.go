// Package progress reports per-scope stage progress either as a terminal bar
// or as sampled log lines.
package progress

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"stutterprep/internal/logging"
)

// Reporter receives progress for one scope at a time. A scope is a stage or
// an episode directory; total may be <= 0 when unknown.
type Reporter interface {
	Start(scope string, total int)
	Add(n int)
	Finish()
}

// Options selects and configures a Reporter.
type Options struct {
	// Bar requests a terminal progress bar. It is only honoured when Output
	// is a terminal.
	Bar    bool
	Output *os.File
	Logger *slog.Logger
}

// New returns a bar reporter when a bar was requested and Output is a
// terminal, otherwise a reporter that logs sampled progress.
func New(opts Options) Reporter {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Bar && IsTerminal(out) {
		return &barReporter{out: out}
	}
	return NewLogReporter(opts.Logger)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(string, int) {}
func (Nop) Add(int)           {}
func (Nop) Finish()           {}

type barReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func (r *barReporter) Start(scope string, total int) {
	r.Finish()
	if total <= 0 {
		total = -1
	}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(scope),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) Add(n int) {
	if r.bar != nil {
		_ = r.bar.Add(n)
	}
}

func (r *barReporter) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}

// LogReporter emits progress through a logger, throttled by a
// logging.ProgressSampler to 10% steps per scope.
type LogReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	scope   string
	total   int
	done    int
}

// NewLogReporter returns a reporter that logs at debug level.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: logging.NewProgressSampler(10),
	}
}

func (r *LogReporter) Start(scope string, total int) {
	r.scope = scope
	r.total = total
	r.done = 0
	r.emit()
}

func (r *LogReporter) Add(n int) {
	r.done += n
	r.emit()
}

func (r *LogReporter) Finish() {}

func (r *LogReporter) emit() {
	if !r.sampler.ShouldLogCount(r.done, r.total, r.scope) {
		return
	}
	attrs := []logging.Attr{
		logging.String("scope", r.scope),
		logging.Int("done", r.done),
	}
	if r.total > 0 {
		attrs = append(attrs,
			logging.Int("total", r.total),
			logging.Int("percent", r.done*100/r.total),
		)
	}
	r.logger.Debug("progress", logging.Args(attrs...)...)
}
