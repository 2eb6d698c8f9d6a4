package archiver

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
	"github.com/partar/partar/internal/fs"
)

// FileRecord is a regular file loaded into memory. It is owned by exactly one
// goroutine at a time: the loader, then the relay, then the writer.
type FileRecord struct {
	// Path is the file's path as found during enumeration.
	Path    string
	Mode    os.FileMode
	ModTime time.Time
	// Owner is nil if the platform does not report file ownership.
	Owner   *fs.Owner
	Xattrs  map[string][]byte
	Content []byte

	buf *buffer
}

// Size returns the number of content bytes.
func (rec *FileRecord) Size() int64 {
	return int64(len(rec.Content))
}

// Release returns the content buffer to the pool it was loaded into. Content
// must not be used afterwards.
func (rec *FileRecord) Release() {
	if rec.buf != nil {
		rec.buf.Release()
		rec.buf = nil
	}
	rec.Content = nil
}

// Compact moves the content into a slice of exactly its size and returns the
// content buffer to its pool. Records kept around for long are compacted so
// that a small file does not pin a whole buffer.
func (rec *FileRecord) Compact() {
	if rec.buf == nil {
		return
	}

	content := make([]byte, len(rec.Content))
	copy(content, rec.Content)

	rec.buf.Release()
	rec.buf = nil
	rec.Content = content
}

// readChunkSize is the amount of data requested from a file per read call,
// the context is checked between two calls.
const readChunkSize = 1 << 20

// FileLoader reads files completely into memory.
type FileLoader struct {
	fs         fs.FS
	pool       *bufferPool
	readXattrs bool
}

// NewFileLoader returns a loader which keeps up to poolSize content buffers
// around for reuse.
func NewFileLoader(filesystem fs.FS, poolSize int, readXattrs bool) *FileLoader {
	return &FileLoader{
		fs:         filesystem,
		pool:       newBufferPool(poolSize, readChunkSize),
		readXattrs: readXattrs,
	}
}

// Load opens path, records its metadata and reads the whole content. All
// failures are filesystem errors, nothing is retried.
func (l *FileLoader) Load(ctx context.Context, path string) (FileRecord, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return FileRecord{}, errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
	}

	rec, err := l.load(ctx, path, f)
	cerr := f.Close()
	if err == nil && cerr != nil {
		err = errors.WithKind(errors.WithStack(cerr), errors.KindFilesystem)
	}
	if err != nil {
		rec.Release()
		return FileRecord{}, err
	}

	debug.Log("loaded %v, %d bytes", path, len(rec.Content))
	return rec, nil
}

func (l *FileLoader) load(ctx context.Context, path string, f fs.File) (FileRecord, error) {
	fi, err := f.Stat()
	if err != nil {
		return FileRecord{}, errors.WithKind(errors.WithStack(err), errors.KindFilesystem)
	}

	// the file may have been replaced since it was enumerated
	if !fi.Mode().IsRegular() {
		return FileRecord{}, errors.WithKind(errors.Errorf("%v is not a regular file (%v)", path, fi.Mode().Type()), errors.KindFilesystem)
	}

	rec := FileRecord{
		Path:    path,
		Mode:    fi.Mode(),
		ModTime: fi.ModTime(),
	}

	if owner, ok := fs.OwnerOf(fi); ok {
		rec.Owner = &owner
	}

	if l.readXattrs {
		rec.Xattrs, err = fs.Xattrs(path)
		if err != nil {
			return FileRecord{}, errors.WithKind(errors.Wrapf(err, "xattrs of %v", path), errors.KindFilesystem)
		}
	}

	// files which do not fit into a pooled buffer get their own slice
	var buf *buffer
	var data []byte
	if size := fi.Size(); size >= 0 && size < int64(l.pool.defaultSize) {
		buf = l.pool.Get()
		data = buf.Data[:0]
	}

	data, err = readAll(ctx, f, data, fi.Size())
	if err != nil {
		if buf != nil {
			buf.Release()
		}
		return FileRecord{}, errors.WithKind(errors.Wrapf(err, "read %v", path), errors.KindFilesystem)
	}

	if buf != nil {
		buf.Data = data
		rec.buf = buf
	}
	rec.Content = data
	return rec, nil
}

// readAll appends the content of rd to data. sizeHint is the expected size,
// the result may differ if the file changes while it is read.
func readAll(ctx context.Context, rd io.Reader, data []byte, sizeHint int64) ([]byte, error) {
	// one extra byte so that reaching EOF does not need to grow the slice
	if want := int(sizeHint) + 1; sizeHint >= 0 && cap(data) < want {
		data = make([]byte, 0, want)
	}

	for {
		if ctx.Err() != nil {
			return data, ctx.Err()
		}

		if len(data) == cap(data) {
			data = append(data, 0)[:len(data)]
		}

		end := min(cap(data), len(data)+readChunkSize)
		n, err := rd.Read(data[len(data):end])
		data = data[:len(data)+n]

		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return data, err
		}
	}
}
