package errors

import (
	"errors"
	"fmt"
)

// fatalError is an error that should be printed to the user as is, then the
// program should exit with an error code. Usage errors are fatal errors caused
// by invalid command line input.
type fatalError struct {
	msg   string
	usage bool
	err   error // Underlying error
}

func (e *fatalError) Error() string {
	return e.msg
}

func (e *fatalError) Unwrap() error {
	return e.err
}

// IsFatal returns true if err is a fatal message that should be printed to the
// user. Then, the program should exit.
func IsFatal(err error) bool {
	var fatal *fatalError
	return errors.As(err, &fatal)
}

// IsUsage returns true if err was created by Usage or Usagef.
func IsUsage(err error) bool {
	var fatal *fatalError
	return errors.As(err, &fatal) && fatal.usage
}

// Fatal returns an error that is marked fatal.
func Fatal(s string) error {
	return Wrap(&fatalError{msg: s}, "Fatal")
}

// Fatalf returns an error that is marked fatal, preserving an underlying error if passed.
func Fatalf(s string, data ...interface{}) error {
	return Wrap(newFatal(false, s, data...), "Fatal")
}

// Usagef returns a fatal error reporting invalid command line input.
func Usagef(s string, data ...interface{}) error {
	return Wrap(newFatal(true, s, data...), "Fatal")
}

func newFatal(usage bool, s string, data ...interface{}) *fatalError {
	// the last error in data becomes the wrapped error
	var underlyingErr error
	for i := len(data) - 1; i >= 0; i-- {
		if err, ok := data[i].(error); ok {
			underlyingErr = err
			break
		}
	}

	return &fatalError{
		msg:   fmt.Sprintf(s, data...),
		usage: usage,
		err:   underlyingErr,
	}
}
