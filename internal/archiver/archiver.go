package archiver

import (
	"context"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/fs"
)

// Options configure an Archiver.
type Options struct {
	// Jobs is the number of goroutines walking directories and loading
	// files. It is also the capacity of the relay between the loaders and
	// the writer.
	Jobs int

	// Sort makes the writer collect every file before appending them in
	// order of their entry names.
	Sort bool

	// ReadXattrs stores extended attributes as PAX records.
	ReadXattrs bool
}

// ApplyDefaults returns a copy of o with default values set for all
// unset fields.
func (o Options) ApplyDefaults() Options {
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	return o
}

// Stats summarize a run.
type Stats struct {
	Files uint
	Bytes uint64
	// PeakInFlight is the highest number of loaded files waiting for the
	// writer at the same time.
	PeakInFlight int
}

// Archiver writes the files denoted by a list of inputs into a tar stream.
type Archiver struct {
	FS           fs.FS
	SelectByName SelectByNameFunc
	Select       SelectFunc

	// CompleteItem is called by the writer goroutine for each appended file.
	CompleteItem func(item string, size int64)

	opts Options
}

// New initializes a new archiver.
func New(filesystem fs.FS, opts Options) *Archiver {
	return &Archiver{
		FS:           filesystem,
		SelectByName: func(_ string) bool { return true },
		Select:       func(_ string, _ os.FileInfo, _ fs.FS) bool { return true },
		CompleteItem: func(string, int64) {},

		opts: opts.ApplyDefaults(),
	}
}

// Run expands inputs and writes all regular files found as a tar stream to
// dst, including the trailer. dst is not closed. The first error from any
// stage stops all others and is returned; in that case no trailer is written.
func (arch *Archiver) Run(ctx context.Context, inputs []string, dst io.Writer) (Stats, error) {
	debug.Log("start for %v, %d jobs", inputs, arch.opts.Jobs)

	relay := NewRelay(arch.opts.Jobs)
	pool := NewTaskPool(arch.opts.Jobs)

	// buffers for the records in the relay, those being loaded and the one
	// being written
	loader := NewFileLoader(arch.FS, 2*arch.opts.Jobs+1, arch.opts.ReadXattrs)

	scanner := NewScanner(arch.FS)
	scanner.SelectByName = arch.SelectByName
	scanner.Select = arch.Select
	scanner.Found = func(ctx context.Context, item string, _ os.FileInfo) error {
		rec, err := loader.Load(ctx, item)
		if err != nil {
			return err
		}

		err = relay.Put(ctx, rec)
		if err != nil {
			rec.Release()
			return err
		}
		return nil
	}

	writer := NewWriter(dst)
	writer.CompleteItem = arch.CompleteItem

	wg, wctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		scanner.Submit(pool, inputs)
		pool.Seal()

		if err := pool.Run(wctx); err != nil {
			return err
		}

		// only a successful run ends the stream, the writer must not finish
		// a partial archive
		relay.Close()
		return nil
	})

	wg.Go(func() error {
		drain := writer.Drain
		if arch.opts.Sort {
			drain = writer.DrainSorted
		}

		if err := drain(wctx, relay); err != nil {
			relay.Abort(err)
			return err
		}

		return writer.Close()
	})

	err := wg.Wait()

	files, bytes := writer.Stats()
	stats := Stats{
		Files:        files,
		Bytes:        bytes,
		PeakInFlight: relay.Stats().Peak,
	}

	debug.Log("done: %+v, err %v", stats, err)
	return stats, err
}
