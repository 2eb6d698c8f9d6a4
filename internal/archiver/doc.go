// Package archiver reads files from the local file system and writes them
// into a single tar stream.
//
// An Archiver runs a pool of worker goroutines which expand the inputs,
// walk directories and load files into memory. Every directory found is a
// new task for the same pool, so wide trees are traversed in parallel. Loaded
// files are handed to exactly one writer goroutine through a Relay, whose
// capacity bounds the number of files held in memory at any time.
//
// The writer owns the tar stream. It appends one entry per file in the order
// the files arrive and writes the trailer once every producer has finished
// and the relay is drained.
package archiver
