//go:build darwin || freebsd || netbsd || linux || solaris

package fs

import (
	"syscall"

	"github.com/pkg/xattr"

	"github.com/partar/partar/internal/debug"
	"github.com/partar/partar/internal/errors"
)

// Xattrs returns the extended attributes of the file at path, following
// symlinks. File systems without xattr support yield an empty result.
func Xattrs(path string) (map[string][]byte, error) {
	names, err := xattr.List(path)
	if err = handleXattrErr(err); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	attrs := make(map[string][]byte, len(names))
	for _, name := range names {
		value, err := xattr.Get(path, name)
		if err = handleXattrErr(err); err != nil {
			return nil, err
		}
		if value == nil {
			// removed between list and get
			debug.Log("xattr %v of %v vanished", name, path)
			continue
		}
		attrs[name] = value
	}

	return attrs, nil
}

func handleXattrErr(err error) error {
	switch e := err.(type) {
	case nil:
		return nil

	case *xattr.Error:
		// On Linux, xattr calls on files in an SMB/CIFS mount can return
		// ENOATTR instead of ENOTSUP.  BSD can return EOPNOTSUPP.
		if e.Err == syscall.ENOTSUP || e.Err == syscall.EOPNOTSUPP || e.Err == xattr.ENOATTR {
			return nil
		}
		return errors.WithStack(e)

	default:
		return errors.WithStack(e)
	}
}
