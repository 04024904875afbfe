// Package preflight checks the filesystem before a stage starts so a run
// with a missing label table or an unwritable output root fails up front
// instead of after minutes of decoding.
//
// Stage commands build a list of Requirements for the paths they touch and
// call Verify; the CLI "config validate" command prints every Result.
package preflight
