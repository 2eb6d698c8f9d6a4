package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/partar/partar/internal/errors"
)

var version = "0.3.0-dev (compiled manually)"

// GlobalOptions hold the options controlling partar's own output.
type GlobalOptions struct {
	Quiet   bool
	Verbose int

	stdout io.Writer
	stderr io.Writer

	// verbosity is set as follows:
	//  0 means: don't print any messages except errors, this is used when --quiet is specified
	//  1 is the default: print the path of every archived file
	//  2 means: also print a summary, this is used when --verbose is specified
	//  3 means: print file sizes as well, this is used when --verbose=2 is specified
	verbosity uint
}

var globalOptions = GlobalOptions{
	stdout: os.Stdout,
	stderr: os.Stderr,
}

// AddFlags registers the global flags on f.
func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not print the path of each archived file")
	// use empty parameter name as `-v, --verbose n` instead of the correct `--verbose=n` is confusing
	f.CountVarP(&opts.Verbose, "verbose", "v", "be verbose (specify multiple times or a level using --verbose=n``, max level/times is 2)")
}

// PreRun derives the verbosity from the flags.
func (opts *GlobalOptions) PreRun() error {
	// set verbosity, default is one
	opts.verbosity = 1
	if opts.Quiet && opts.Verbose > 0 {
		return errors.Usagef("--quiet and --verbose cannot be specified at the same time")
	}

	switch {
	case opts.Verbose >= 2:
		opts.verbosity = 3
	case opts.Verbose > 0:
		opts.verbosity = 2
	case opts.Quiet:
		opts.verbosity = 0
	}

	return nil
}

// Verbosef writes the message to stderr if the verbose flag is set.
func Verbosef(format string, args ...interface{}) {
	if globalOptions.verbosity < 2 {
		return
	}

	Warnf(format, args...)
}

// Warnf writes the message to the configured stderr stream.
func Warnf(format string, args ...interface{}) {
	_, err := fmt.Fprintf(globalOptions.stderr, format, args...)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "unable to write to stderr: %v\n", err)
	}
}
