package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	godebug "runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

func newRootCommand() *cobra.Command {
	var opts ArchiveOptions

	cmd := &cobra.Command{
		Use:   "partar [flags] OUTPUT INPUT...",
		Short: "Create a zstd compressed tar archive in parallel",
		Long: `
partar writes all regular files denoted by the inputs into a single tar
archive compressed with zstd.

An input is a file, a directory, which is read recursively, or a glob pattern.
Directories and files are read by a pool of --jobs goroutines, the archive is
written by a single one. Entries appear in the order the files finish loading
unless --sort is given. The path of every archived file is printed to stderr.

EXIT STATUS
===========

Exit status is 0 if the archive was written completely, 1 if any error
occurred, 2 if the command line was invalid and 130 if partar was
interrupted. After an error the output file is left behind incomplete.
`,
		Version:           fmt.Sprintf("%s compiled with %v on %v/%v", version, runtime.Version(), runtime.GOOS, runtime.GOARCH),
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,

		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 2 {
				return errors.Usagef("requires OUTPUT and at least one INPUT, got %d arguments", len(args))
			}
			return nil
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return globalOptions.PreRun()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchive(cmd.Context(), opts, globalOptions, args)
		},
	}

	cmd.SetOut(globalOptions.stdout)
	cmd.SetErr(globalOptions.stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Usagef("%v", err)
	})
	cmd.CompletionOptions.DisableDefaultCmd = true

	globalOptions.AddFlags(cmd.PersistentFlags())
	opts.AddFlags(cmd.Flags())
	registerProfiling(cmd)

	return cmd
}

func tweakGoGC() {
	// lower GOGC from 100 to 50, unless it was manually overwritten by the user
	oldValue := godebug.SetGCPercent(50)
	if oldValue != 100 {
		godebug.SetGCPercent(oldValue)
	}
}

// exitCode maps the result of a run onto the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.IsUsage(err):
		return 2
	default:
		return 1
	}
}

// exitMessage formats err for the user. Errors of a known kind are prefixed
// with it, unexpected ones are printed with their stack trace.
func exitMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.IsUsage(err):
		return fmt.Sprintf("%v\nRun 'partar --help' for usage.", err)
	case errors.IsFatal(err):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "interrupted, the output file is incomplete"
	case errors.KindOf(err) != errors.KindUnknown:
		return fmt.Sprintf("%v: %v", errors.KindOf(err), err)
	default:
		return fmt.Sprintf("%+v", err)
	}
}

func main() {
	tweakGoGC()
	// install custom global logger into a buffer, if an error occurs
	// we can show the logs
	logBuffer := bytes.NewBuffer(nil)
	log.SetOutput(logBuffer)

	debug.Log("main %#v", os.Args)
	debug.Log("partar %s compiled with %v on %v/%v",
		version, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	ctx := createGlobalContext()
	err := newRootCommand().ExecuteContext(ctx)
	if err == nil {
		err = ctx.Err()
	}

	code := exitCode(err)
	if code != 0 {
		message := exitMessage(err)
		if code == 1 && logBuffer.Len() > 0 {
			message += "\nalso, the following messages were logged by a library:\n"
			sc := bufio.NewScanner(logBuffer)
			for sc.Scan() {
				message += fmt.Sprintln(sc.Text())
			}
		}

		Warnf("%v\n", message)
	}
	Exit(code)
}
