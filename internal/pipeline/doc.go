// Package pipeline holds the vocabulary shared by every corpus preparation
// stage: sentinel error markers, the run context carried through a stage, and
// the typed per-item results that stages aggregate into a Summary.
//
// Stages never abort a batch for per-clip problems. Those are recorded as
// skipped items with a reason and the batch continues. Only configuration
// errors and sample-rate mismatches propagate to the caller (see IsFatal).
package pipeline
