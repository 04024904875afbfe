package preflight

import (
	"fmt"
	"strings"

	"stutterprep/internal/pipeline"
)

// Kind selects the access a Requirement needs.
type Kind int

const (
	// ReadableFile is an existing regular file that can be read.
	ReadableFile Kind = iota
	// ReadableDir is an existing directory that can be listed.
	ReadableDir
	// WritableDir is a directory that exists and is writable, or can be
	// created under a writable ancestor.
	WritableDir
)

// Requirement names a path and the access a stage needs on it.
type Requirement struct {
	Name string
	Path string
	Kind Kind
}

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Check evaluates a single requirement.
func Check(req Requirement) Result {
	switch req.Kind {
	case ReadableFile:
		return CheckFileReadable(req.Name, req.Path)
	case ReadableDir:
		return CheckDirectoryReadable(req.Name, req.Path)
	default:
		return CheckDirectoryWritable(req.Name, req.Path)
	}
}

// RunAll evaluates every requirement in order.
func RunAll(reqs []Requirement) []Result {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, Check(req))
	}
	return results
}

// Verify runs reqs and returns a configuration error naming every failure.
func Verify(stage string, reqs []Requirement) error {
	var failed []string
	for _, r := range RunAll(reqs) {
		if !r.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return pipeline.Wrap(pipeline.ErrConfiguration, stage, "preflight", strings.Join(failed, "; "), nil)
}
