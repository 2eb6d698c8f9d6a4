package main

import (
	"testing"

	"github.com/spf13/pflag"

	"github.com/partar/partar/internal/errors"
	rtest "github.com/partar/partar/internal/test"
)

func TestArchiveOptionsCheck(t *testing.T) {
	for _, test := range []struct {
		opts ArchiveOptions
		ok   bool
	}{
		{ArchiveOptions{Jobs: 1, Workers: 1}, true},
		{ArchiveOptions{Jobs: 16, Workers: 0, Level: 22}, true},
		{ArchiveOptions{Jobs: 1, Workers: 1, Level: -7}, true},
		{ArchiveOptions{Jobs: 0, Workers: 1}, false},
		{ArchiveOptions{Jobs: -3, Workers: 1}, false},
		{ArchiveOptions{Jobs: 1, Workers: -1}, false},
		{ArchiveOptions{Jobs: 1, Workers: 1, Level: 23}, false},
	} {
		err := test.opts.Check()
		if test.ok {
			rtest.OK(t, err)
			continue
		}
		rtest.Assert(t, errors.IsUsage(err), "expected usage error for %+v, got %v", test.opts, err)
	}
}

func TestArchiveOptionsDefaults(t *testing.T) {
	var opts ArchiveOptions
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(f)
	rtest.OK(t, f.Parse(nil))

	rtest.Equals(t, 1, opts.Jobs)
	rtest.Equals(t, 0, opts.Level)
	rtest.Equals(t, 1, opts.Workers)
	rtest.Equals(t, false, opts.Sort)
}

func TestArchiveOptionsEnvironment(t *testing.T) {
	t.Setenv("PARTAR_JOBS", "4")
	t.Setenv("PARTAR_LEVEL", "19")
	t.Setenv("PARTAR_WORKERS", "not a number")

	var opts ArchiveOptions
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(f)
	rtest.OK(t, f.Parse(nil))

	rtest.Equals(t, 4, opts.Jobs)
	rtest.Equals(t, 19, opts.Level)
	rtest.Equals(t, 1, opts.Workers)

	// flags take precedence over the environment
	opts = ArchiveOptions{}
	f = pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(f)
	rtest.OK(t, f.Parse([]string{"-j", "2", "--level=3"}))

	rtest.Equals(t, 2, opts.Jobs)
	rtest.Equals(t, 3, opts.Level)
}

func TestCollectRejectByNameFuncs(t *testing.T) {
	funcs, err := collectRejectByNameFuncs(ArchiveOptions{})
	rtest.OK(t, err)
	rtest.Assert(t, funcs == nil, "expected no reject functions, got %d", len(funcs))

	funcs, err = collectRejectByNameFuncs(ArchiveOptions{ExcludePatternOptions: filterOptions("*.o")})
	rtest.OK(t, err)
	rtest.Equals(t, 1, len(funcs))
	rtest.Assert(t, funcs[0]("src/main.o"), "pattern should reject src/main.o")
}

func TestCollectRejectFuncs(t *testing.T) {
	funcs, err := collectRejectFuncs(ArchiveOptions{})
	rtest.OK(t, err)
	rtest.Equals(t, 0, len(funcs))

	funcs, err = collectRejectFuncs(ArchiveOptions{
		ExcludeCaches:     true,
		ExcludeIfPresent:  []string{".nobackup"},
		ExcludeLargerThan: "10M",
	})
	rtest.OK(t, err)
	rtest.Equals(t, 3, len(funcs))

	_, err = collectRejectFuncs(ArchiveOptions{ExcludeLargerThan: "-1k"})
	rtest.Assert(t, errors.IsUsage(err), "expected usage error, got %v", err)
}
