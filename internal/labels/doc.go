// Package labels loads the clip label table and indexes it by
// (show, episode, clip).
//
// The table is a CSV file with a header row. Required columns are Show, EpId,
// ClipId, Start and Stop; the five disfluency flag columns are additionally
// required when the clean-speech filter is enabled. Rows that cannot be parsed
// are rejected individually and counted. Missing columns fail the whole load.
package labels
