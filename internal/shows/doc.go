// Package shows maps show identifiers from the label table onto the show
// directories found under the raw audio root.
//
// Matching is case-insensitive and ignores all whitespace, so "Stuttering Is
// Cool" in the label table resolves to a "StutteringIsCool" directory. The
// mapping is built once per run from a directory listing.
package shows
