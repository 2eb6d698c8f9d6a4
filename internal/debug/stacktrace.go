package debug

import "runtime"

// DumpStacktrace returns the stack traces of all goroutines, growing the
// buffer until everything fits.
func DumpStacktrace() string {
	for size := 128 * 1024; ; size *= 2 {
		buf := make([]byte, size)
		if l := runtime.Stack(buf, true); l < len(buf) {
			return string(buf[:l])
		}
	}
}
