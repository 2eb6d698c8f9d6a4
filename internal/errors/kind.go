package errors

// Kind classifies the stage of the pipeline an error originated in.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPattern is a malformed glob pattern.
	KindPattern
	// KindFilesystem covers open/stat/read/readdir failures.
	KindFilesystem
	// KindArchive is returned when an entry cannot be encoded.
	KindArchive
	// KindSink covers creating, writing and finalizing the compressed output.
	KindSink
	// KindRelay is a hand-off to a consumer that has gone away.
	KindRelay
)

func (k Kind) String() string {
	switch k {
	case KindPattern:
		return "pattern error"
	case KindFilesystem:
		return "filesystem error"
	case KindArchive:
		return "archive error"
	case KindSink:
		return "output error"
	case KindRelay:
		return "relay error"
	default:
		return "error"
	}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// WithKind attaches kind to err. If err is nil, WithKind returns nil. An
// error that already carries a kind keeps the innermost one.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &kindError{kind: kind, err: err}
}

// KindOf returns the kind attached to err, or KindUnknown.
func KindOf(err error) Kind {
	var ke *kindError
	if As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}
