// Package sink implements the compressed output stream of an archive.
package sink

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

// MaxLevel is the highest zstd compression level accepted.
const MaxLevel = 22

// ErrFinalized is returned when writing to or closing a sink that has
// already been finalized.
var ErrFinalized = errors.New("sink already finalized")

// Options configure the compressor.
type Options struct {
	// Level is a zstd compression level. Zero selects the default level,
	// negative values the fastest one.
	Level int
	// Workers is the number of goroutines compressing blocks concurrently.
	// Values below two compress synchronously on the writing goroutine.
	Workers int
}

// EncoderLevel maps a zstd command line level onto an encoder level.
func EncoderLevel(level int) (zstd.EncoderLevel, error) {
	switch {
	case level > MaxLevel:
		return 0, errors.Errorf("compression level %d out of range, maximum is %d", level, MaxLevel)
	case level < 0:
		return zstd.SpeedFastest, nil
	case level == 0:
		return zstd.SpeedDefault, nil
	default:
		return zstd.EncoderLevelFromZstd(level), nil
	}
}

// Sink compresses everything written to it into dst. It must be closed
// exactly once, which writes the zstd frame trailer and closes dst.
type Sink struct {
	dst io.WriteCloser
	enc *zstd.Encoder

	written atomic.Uint64

	m         sync.Mutex
	finalized bool
}

// statically ensure that Sink implements io.WriteCloser.
var _ io.WriteCloser = &Sink{}

// New wraps dst in a zstd encoder configured by opts. On error, dst is
// left open.
func New(dst io.WriteCloser, opts Options) (*Sink, error) {
	level, err := EncoderLevel(opts.Level)
	if err != nil {
		return nil, errors.WithKind(err, errors.KindSink)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	s := &Sink{dst: dst}
	counted := &countingWriter{w: dst, n: &s.written}
	enc, err := zstd.NewWriter(counted,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(workers),
	)
	if err != nil {
		return nil, errors.WithKind(errors.Wrap(err, "create zstd encoder"), errors.KindSink)
	}
	s.enc = enc

	debug.Log("new sink with level %v (%v), %d workers", opts.Level, level, workers)
	return s, nil
}

// Write compresses p.
func (s *Sink) Write(p []byte) (int, error) {
	if s.isFinalized() {
		return 0, errors.WithKind(ErrFinalized, errors.KindSink)
	}

	n, err := s.enc.Write(p)
	if err != nil {
		return n, errors.WithKind(errors.Wrap(err, "compress"), errors.KindSink)
	}
	return n, nil
}

// Close flushes all pending blocks, writes the frame trailer and closes the
// destination. Every call after the first returns ErrFinalized.
func (s *Sink) Close() error {
	s.m.Lock()
	if s.finalized {
		s.m.Unlock()
		return errors.WithKind(ErrFinalized, errors.KindSink)
	}
	s.finalized = true
	s.m.Unlock()

	err := s.enc.Close()
	if err != nil {
		_ = s.dst.Close()
		return errors.WithKind(errors.Wrap(err, "finalize zstd stream"), errors.KindSink)
	}

	if err := s.dst.Close(); err != nil {
		return errors.WithKind(errors.Wrap(err, "close output"), errors.KindSink)
	}

	debug.Log("sink finalized, %d compressed bytes", s.Written())
	return nil
}

// Abort releases the encoder and closes the destination without writing
// the trailer. The output is left undecodable.
func (s *Sink) Abort() error {
	s.m.Lock()
	if s.finalized {
		s.m.Unlock()
		return nil
	}
	s.finalized = true
	s.m.Unlock()

	// Reset drops pending blocks and detaches the encoder from dst
	s.enc.Reset(io.Discard)
	return s.dst.Close()
}

// Written returns the number of compressed bytes passed to the destination.
func (s *Sink) Written() uint64 {
	return s.written.Load()
}

func (s *Sink) isFinalized() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.finalized
}

// countingWriter counts bytes written to w. The encoder calls Write from its
// own goroutine when running concurrently.
type countingWriter struct {
	w io.Writer
	n *atomic.Uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n.Add(uint64(n))
	return n, err
}
