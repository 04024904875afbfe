package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWrapKeepsMarkerAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrSampleRateMismatch, "extract", "load episode", "expected 16000 Hz", cause)
	if !errors.Is(err, ErrSampleRateMismatch) {
		t.Fatalf("expected marker to be preserved: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved: %v", err)
	}
	if !strings.Contains(err.Error(), "extract: load episode: expected 16000 Hz") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := Wrap(ErrNotFound, "", "", "", nil)
	if err.Error() != "not found: pipeline failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"config", Wrap(ErrConfiguration, "labels", "load", "missing column", nil), true},
		{"rate", Wrap(ErrSampleRateMismatch, "extract", "", "", nil), true},
		{"rejected", Wrap(ErrRejected, "trim", "", "", nil), false},
		{"decode", Wrap(ErrDecode, "extract", "", "", nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Fatalf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Fatal("expected zero exit for nil error")
	}
	if ExitCode(Wrap(ErrConfiguration, "", "", "bad", nil)) != 2 {
		t.Fatal("expected exit 2 for configuration error")
	}
	if ExitCode(Wrap(ErrSampleRateMismatch, "", "", "bad", nil)) != 3 {
		t.Fatal("expected exit 3 for sample rate mismatch")
	}
	if ExitCode(errors.New("other")) != 1 {
		t.Fatal("expected exit 1 for generic error")
	}
}

func TestRunContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc")
	ctx = WithStage(ctx, "trim")
	if id, ok := RunIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected run id %q %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "trim" {
		t.Fatalf("unexpected stage %q %v", stage, ok)
	}
	if WithStage(ctx, "") != ctx {
		t.Fatal("empty stage should not wrap context")
	}
	if NewRunID() == NewRunID() {
		t.Fatal("expected unique run ids")
	}
}
