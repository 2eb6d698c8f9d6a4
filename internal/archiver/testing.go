package archiver

import (
	"archive/tar"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// TestEntry describes one entry of an archive read back in a test.
type TestEntry struct {
	Name    string
	Mode    int64
	Size    int64
	Content string
	Digest  uint64
}

// TestReadTar decodes the tar stream rd and returns its entries in archive
// order.
func TestReadTar(t testing.TB, rd io.Reader) []TestEntry {
	t.Helper()

	var entries []TestEntry
	tr := tar.NewReader(rd)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries
		}
		if err != nil {
			t.Fatalf("reading tar header: %v", err)
		}

		buf, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("reading content of %v: %v", hdr.Name, err)
		}

		if hdr.Typeflag != tar.TypeReg {
			t.Errorf("entry %v has type %v, want regular file", hdr.Name, hdr.Typeflag)
		}

		entries = append(entries, TestEntry{
			Name:    hdr.Name,
			Mode:    hdr.Mode,
			Size:    hdr.Size,
			Content: string(buf),
			Digest:  xxhash.Sum64(buf),
		})
	}
}

// TestReadArchive decompresses the archive at filename and returns its
// entries in archive order.
func TestReadArchive(t testing.TB, filename string) []TestEntry {
	t.Helper()

	f, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()

	return TestReadTar(t, dec)
}

// TestSortEntries sorts entries by name, then by digest.
func TestSortEntries(entries []TestEntry) []TestEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Digest < entries[j].Digest
	})
	return entries
}
