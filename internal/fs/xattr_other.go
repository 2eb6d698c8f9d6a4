//go:build !(darwin || freebsd || netbsd || linux || solaris)

package fs

// Xattrs returns nothing, extended attributes are not supported on this
// platform.
func Xattrs(_ string) (map[string][]byte, error) {
	return nil, nil
}
