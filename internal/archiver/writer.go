package archiver

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

// ErrWriterClosed is returned when appending to a closed Writer.
var ErrWriterClosed = errors.New("archive writer is closed")

// copied from archive/tar.FileInfoHeader
const (
	// Mode constants from the USTAR spec:
	// See http://pubs.opengroup.org/onlinepubs/9699919799/utilities/pax.html#tag_20_92_13_06
	c_ISUID = 04000 // Set uid
	c_ISGID = 02000 // Set gid
	c_ISVTX = 01000 // Save text (sticky bit)
)

// Writer appends files to a tar stream. It is not safe for concurrent use;
// exactly one goroutine owns it.
type Writer struct {
	tw     *tar.Writer
	closed bool

	files uint
	bytes uint64

	// CompleteItem is called after an entry has been appended, with the path
	// of the file as enumerated.
	CompleteItem func(item string, size int64)
}

// NewWriter returns a Writer producing a tar stream on dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{
		tw:           tar.NewWriter(dst),
		CompleteItem: func(string, int64) {},
	}
}

// EntryName returns the name under which the file at item is stored. Volume
// names and leading separators are removed, the result uses forward slashes.
// Names that would escape the extraction directory are rejected.
func EntryName(item string) (string, error) {
	name := filepath.ToSlash(item[len(filepath.VolumeName(item)):])
	name = strings.TrimLeft(name, "/")

	for _, elem := range strings.Split(name, "/") {
		if elem == ".." {
			return "", errors.WithKind(errors.Errorf("entry name for %q contains '..'", item), errors.KindArchive)
		}
	}

	name = path.Clean(name)
	if name == "." || name == "" {
		return "", errors.WithKind(errors.Errorf("empty entry name for %q", item), errors.KindArchive)
	}

	return name, nil
}

// tarHeader builds the header for rec, stored as name.
func tarHeader(name string, rec *FileRecord) *tar.Header {
	header := &tar.Header{
		Typeflag:   tar.TypeReg,
		Name:       name,
		Size:       rec.Size(),
		Mode:       int64(rec.Mode.Perm()), // c_IS* constants are added later
		ModTime:    rec.ModTime,
		PAXRecords: xattrRecords(rec.Xattrs),
	}

	if rec.Owner != nil {
		header.Uid = rec.Owner.UID
		header.Gid = rec.Owner.GID
		header.Uname = rec.Owner.User
		header.Gname = rec.Owner.Group
	}

	// adapted from archive/tar.FileInfoHeader
	if rec.Mode&os.ModeSetuid != 0 {
		header.Mode |= c_ISUID
	}
	if rec.Mode&os.ModeSetgid != 0 {
		header.Mode |= c_ISGID
	}
	if rec.Mode&os.ModeSticky != 0 {
		header.Mode |= c_ISVTX
	}

	return header
}

func xattrRecords(xattrs map[string][]byte) map[string]string {
	if len(xattrs) == 0 {
		return nil
	}

	records := make(map[string]string, len(xattrs))
	for name, value := range xattrs {
		records["SCHILY.xattr."+name] = string(value)
	}
	return records
}

// Append writes rec as a single entry. The content buffer is not released.
func (w *Writer) Append(rec *FileRecord) error {
	if w.closed {
		return errors.WithKind(ErrWriterClosed, errors.KindArchive)
	}

	name, err := EntryName(rec.Path)
	if err != nil {
		return err
	}

	return w.append(name, rec)
}

func (w *Writer) append(name string, rec *FileRecord) error {
	err := w.tw.WriteHeader(tarHeader(name, rec))
	if err != nil {
		return errors.WithKind(errors.Wrap(err, "TarHeader"), errors.KindArchive)
	}

	_, err = w.tw.Write(rec.Content)
	if err != nil {
		return errors.WithKind(errors.Wrapf(err, "write %v", name), errors.KindArchive)
	}

	w.files++
	w.bytes += uint64(len(rec.Content))
	w.CompleteItem(rec.Path, rec.Size())
	return nil
}

// Drain appends records taken from relay until it is closed and empty.
func (w *Writer) Drain(ctx context.Context, relay *Relay) error {
	for {
		rec, ok, err := relay.Take(ctx)
		if err != nil {
			return err
		}
		if !ok {
			debug.Log("relay drained, %d entries", w.files)
			return nil
		}

		err = w.Append(&rec)
		rec.Release()
		if err != nil {
			return err
		}
	}
}

type namedRecord struct {
	name string
	rec  FileRecord
}

// DrainSorted takes all records from relay and appends them sorted by entry
// name. Every record is kept in memory until the relay is closed.
func (w *Writer) DrainSorted(ctx context.Context, relay *Relay) error {
	var records []namedRecord
	defer func() {
		for i := range records {
			records[i].rec.Release()
		}
	}()

	for {
		rec, ok, err := relay.Take(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		rec.Compact()
		records = append(records, namedRecord{rec: rec})
		name, err := EntryName(rec.Path)
		if err != nil {
			return err
		}
		records[len(records)-1].name = name
	}

	debug.Log("relay drained, sorting %d entries", len(records))

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].name < records[j].name
	})

	if w.closed {
		return errors.WithKind(ErrWriterClosed, errors.KindArchive)
	}

	for i := range records {
		if err := w.append(records[i].name, &records[i].rec); err != nil {
			return err
		}
		records[i].rec.Release()
	}

	return nil
}

// Close writes the tar trailer. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return errors.WithKind(ErrWriterClosed, errors.KindArchive)
	}
	w.closed = true

	err := w.tw.Close()
	if err != nil {
		return errors.WithKind(errors.Wrap(err, "write trailer"), errors.KindArchive)
	}
	return nil
}

// Stats returns the number of entries and content bytes written so far.
func (w *Writer) Stats() (files uint, bytes uint64) {
	return w.files, w.bytes
}
