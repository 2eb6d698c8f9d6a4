package main

import (
	"time"

	"github.com/partar/partar/internal/archiver"
	"github.com/partar/partar/internal/ui"
)

// progress reports archived files on stderr. CompleteItem is only called
// from the archive writer, so no locking is needed.
type progress struct {
	verbosity uint
}

func newProgress(gopts GlobalOptions) *progress {
	return &progress{verbosity: gopts.verbosity}
}

// CompleteItem prints the path of an archived file.
func (p *progress) CompleteItem(item string, size int64) {
	switch {
	case p.verbosity >= 3:
		Warnf("%s (%s)\n", ui.Quote(item), ui.FormatBytes(uint64(size)))
	case p.verbosity >= 1:
		Warnf("%s\n", ui.Quote(item))
	}
}

// Finish prints the summary of a successful run.
func (p *progress) Finish(stats archiver.Stats, jobs int, written uint64, d time.Duration) {
	Verbosef("archived %d files, %s in %s\n", stats.Files, ui.FormatBytes(stats.Bytes), ui.FormatDuration(d))
	if ratio := ui.FormatPercent(written, stats.Bytes); ratio != "" {
		Verbosef("output %s (%s of input)\n", ui.FormatBytes(written), ratio)
	} else {
		Verbosef("output %s\n", ui.FormatBytes(written))
	}
	Verbosef("at most %d of %d loaded files waited for the writer\n", stats.PeakInFlight, jobs)
}
