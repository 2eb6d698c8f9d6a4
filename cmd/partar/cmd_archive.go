package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/partar/partar/internal/archiver"
	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
	"github.com/partar/partar/internal/filter"
	"github.com/partar/partar/internal/fs"
	"github.com/partar/partar/internal/sink"
	"github.com/partar/partar/internal/ui"
)

// ArchiveOptions collects all options for creating an archive.
type ArchiveOptions struct {
	filter.ExcludePatternOptions

	Jobs    int
	Level   int
	Workers int
	Sort    bool
	Xattrs  bool

	ExcludeIfPresent  []string
	ExcludeCaches     bool
	ExcludeLargerThan string
}

// AddFlags registers the archive flags on f. Numeric defaults can be
// overridden from the environment.
func (opts *ArchiveOptions) AddFlags(f *pflag.FlagSet) {
	f.IntVarP(&opts.Jobs, "jobs", "j", 1, "number of `n` goroutines walking directories and reading files, also the number of files held in memory (default: $PARTAR_JOBS)")
	f.IntVarP(&opts.Level, "level", "l", 0, "zstd compression `level` up to 22, 0 selects the default level and negative values the fastest (default: $PARTAR_LEVEL)")
	f.IntVarP(&opts.Workers, "workers", "w", 1, "number of `n` goroutines compressing the output (default: $PARTAR_WORKERS)")
	f.BoolVar(&opts.Sort, "sort", false, "write entries sorted by name, keeps all files in memory until every input has been read")
	f.BoolVar(&opts.Xattrs, "xattrs", false, "store extended attributes as PAX records")

	opts.ExcludePatternOptions.Add(f)
	f.StringArrayVar(&opts.ExcludeIfPresent, "exclude-if-present", nil, "takes `filename[:header]`, exclude contents of directories containing filename (except filename itself) if header of that file is as provided (can be specified multiple times)")
	f.BoolVar(&opts.ExcludeCaches, "exclude-caches", false, `excludes cache directories that are marked with a CACHEDIR.TAG file. See https://bford.info/cachedir/ for the Cache Directory Tagging Standard`)
	f.StringVar(&opts.ExcludeLargerThan, "exclude-larger-than", "", "max `size` of the files to be archived (allowed suffixes: k/K, m/M, g/G, t/T)")

	// on parse errors the flag default is used
	if v, err := strconv.Atoi(os.Getenv("PARTAR_JOBS")); err == nil {
		opts.Jobs = v
	}
	if v, err := strconv.Atoi(os.Getenv("PARTAR_LEVEL")); err == nil {
		opts.Level = v
	}
	if v, err := strconv.Atoi(os.Getenv("PARTAR_WORKERS")); err == nil {
		opts.Workers = v
	}
}

// Check validates the numeric options.
func (opts *ArchiveOptions) Check() error {
	if opts.Jobs < 1 {
		return errors.Usagef("--jobs must be at least 1, got %d", opts.Jobs)
	}
	if opts.Workers < 0 {
		return errors.Usagef("--workers must not be negative, got %d", opts.Workers)
	}
	if opts.Level > sink.MaxLevel {
		return errors.Usagef("--level must be at most %d, got %d", sink.MaxLevel, opts.Level)
	}
	return nil
}

// collectRejectByNameFuncs returns the reject functions working on the path
// alone.
func collectRejectByNameFuncs(opts ArchiveOptions) ([]filter.RejectByNameFunc, error) {
	if opts.ExcludePatternOptions.Empty() {
		return nil, nil
	}
	return opts.ExcludePatternOptions.CollectPatterns(Warnf)
}

// collectRejectFuncs returns the reject functions which need the file info.
func collectRejectFuncs(opts ArchiveOptions) (funcs []archiver.RejectFunc, err error) {
	if opts.ExcludeCaches {
		opts.ExcludeIfPresent = append(opts.ExcludeIfPresent, "CACHEDIR.TAG:Signature: 8a477f597d28d172789f06886806bc55")
	}

	for _, spec := range opts.ExcludeIfPresent {
		f, err := archiver.RejectIfPresent(spec, Warnf)
		if err != nil {
			return nil, errors.Usagef("--exclude-if-present: %v", err)
		}

		funcs = append(funcs, f)
	}

	if len(opts.ExcludeLargerThan) != 0 {
		maxSize, err := ui.ParseBytes(opts.ExcludeLargerThan)
		if err != nil {
			return nil, errors.Usagef("--exclude-larger-than: %v", err)
		}

		funcs = append(funcs, archiver.RejectBySize(maxSize))
	}

	return funcs, nil
}

func runArchive(ctx context.Context, opts ArchiveOptions, gopts GlobalOptions, args []string) error {
	if len(args) < 2 {
		return errors.Usagef("an output file and at least one input are required")
	}
	if err := opts.Check(); err != nil {
		return err
	}

	rejectByNameFuncs, err := collectRejectByNameFuncs(opts)
	if err != nil {
		return err
	}

	rejectFuncs, err := collectRejectFuncs(opts)
	if err != nil {
		return err
	}

	output, inputs := args[0], args[1:]
	debug.Log("archive %v into %v", inputs, output)

	filesystem := fs.Local{}
	f, err := filesystem.Create(output)
	if err != nil {
		return errors.WithKind(errors.WithStack(err), errors.KindSink)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return errors.WithKind(errors.WithStack(err), errors.KindSink)
	}

	sk, err := sink.New(f, sink.Options{Level: opts.Level, Workers: opts.Workers})
	if err != nil {
		_ = f.Close()
		return err
	}

	arch := archiver.New(filesystem, archiver.Options{
		Jobs:       opts.Jobs,
		Sort:       opts.Sort,
		ReadXattrs: opts.Xattrs,
	})
	arch.SelectByName = archiver.CombineRejectByNames(rejectByNameFuncs)
	arch.Select = archiver.CombineRejects(append(rejectFuncs, archiver.RejectSameFile(fi)))

	progress := newProgress(gopts)
	arch.CompleteItem = progress.CompleteItem

	start := time.Now()
	stats, err := arch.Run(ctx, inputs, sk)
	if err != nil {
		// the output is left behind truncated
		if aerr := sk.Abort(); aerr != nil {
			debug.Log("abort sink: %v", aerr)
		}
		return err
	}

	if err := sk.Close(); err != nil {
		return err
	}

	progress.Finish(stats, opts.Jobs, sk.Written(), time.Since(start))
	return nil
}
