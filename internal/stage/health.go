package stage

import (
	"strings"

	"stutterprep/internal/preflight"
)

// Health summarizes the readiness of a stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// Check evaluates the handler's requirements without running it.
func Check(h Handler) Health {
	var failed []string
	for _, r := range preflight.RunAll(h.Requirements()) {
		if !r.Passed {
			failed = append(failed, r.Name+": "+r.Detail)
		}
	}
	if len(failed) == 0 {
		return Healthy(h.Name())
	}
	return Unhealthy(h.Name(), strings.Join(failed, "; "))
}
