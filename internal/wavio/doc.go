// Package wavio reads and writes the PCM WAV files that flow through the
// corpus pipeline.
//
// Integer buffers (Buffer) keep the source bit depth so clips cut from an
// episode are bit-exact copies of the source samples. Float signals (Signal)
// are mono, scaled to [-1, 1], and written back as 16-bit PCM.
package wavio
