//go:build debug

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/partar/partar/internal/errors"
)

type profileOptions struct {
	listen    string
	memPath   string
	cpuPath   string
	tracePath string
	blockPath string
}

func registerProfiling(cmd *cobra.Command) {
	var profiler profileOptions

	origPreRun := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if origPreRun != nil {
			if err := origPreRun(c, args); err != nil {
				return err
			}
		}
		return profiler.Start()
	}

	f := cmd.PersistentFlags()
	f.StringVar(&profiler.listen, "listen-profile", "", "listen on this `address:port` for memory profiling")
	f.StringVar(&profiler.memPath, "mem-profile", "", "write memory profile to `dir`")
	f.StringVar(&profiler.cpuPath, "cpu-profile", "", "write cpu profile to `dir`")
	f.StringVar(&profiler.tracePath, "trace-profile", "", "write trace to `dir`")
	f.StringVar(&profiler.blockPath, "block-profile", "", "write block profile to `dir`")
}

func (opts profileOptions) Start() error {
	if opts.listen != "" {
		fmt.Fprintf(os.Stderr, "running profile HTTP server on %v\n", opts.listen)
		go func() {
			err := http.ListenAndServe(opts.listen, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "profile HTTP server listen failed: %v\n", err)
			}
		}()
	}

	profilesEnabled := 0
	if opts.memPath != "" {
		profilesEnabled++
	}
	if opts.cpuPath != "" {
		profilesEnabled++
	}
	if opts.tracePath != "" {
		profilesEnabled++
	}
	if opts.blockPath != "" {
		profilesEnabled++
	}

	if profilesEnabled > 1 {
		return errors.Fatal("only one profile (memory, CPU, trace, or block) may be activated at the same time")
	}

	var prof interface {
		Stop()
	}

	switch {
	case opts.memPath != "":
		prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.MemProfile, profile.ProfilePath(opts.memPath))
	case opts.cpuPath != "":
		prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.CPUProfile, profile.ProfilePath(opts.cpuPath))
	case opts.tracePath != "":
		prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.TraceProfile, profile.ProfilePath(opts.tracePath))
	case opts.blockPath != "":
		prof = profile.Start(profile.Quiet, profile.NoShutdownHook, profile.BlockProfile, profile.ProfilePath(opts.blockPath))
	}

	if prof != nil {
		AddCleanupHandler(func() error {
			prof.Stop()
			return nil
		})
	}

	return nil
}
