package fsport

import (
	"errors"
	"syscall"
)

// isENOTEMPTY reports whether err ultimately wraps ENOTEMPTY, the error
// RemoveDir yields when a directory still has entries.
func isENOTEMPTY(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY)
}
