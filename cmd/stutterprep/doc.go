// Command stutterprep prepares a labeled podcast corpus for stutter
// detection training.
//
// The pipeline runs as separate subcommands so each stage can be rerun on
// its own:
//
//	stutterprep extract      cut labeled clips out of raw episodes
//	stutterprep trim         strip leading and trailing silence
//	stutterprep normalize    rescale clips to a common RMS level
//	stutterprep clean        trim and normalize in one pass
//	stutterprep manifest     write the training dataset table
//	stutterprep run          extract, trim, normalize and manifest in order
//	stutterprep history      list recorded runs and their skipped items
//
// Paths and thresholds come from config.toml (see `stutterprep config init`);
// flags override them per invocation. Exit status is 2 for configuration
// problems, 3 when an episode has an unexpected sample rate, and 0 when the
// run finished, even if individual clips were skipped.
package main
