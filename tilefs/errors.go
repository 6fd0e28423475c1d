package tilefs

import (
	"errors"
	"syscall"
)

// Sentinel errors for package tilefs.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Path errors
	ErrMalformedPath     = errors.New("path does not start with '/'")
	ErrOutOfRange        = errors.New("tile coordinate outside of the zoom grid")
	ErrTrailingComponent = errors.New("path continues below a tile")

	// Operation errors
	ErrNotFound     = errors.New("no such tile")
	ErrPermission   = errors.New("tiles are read-only")
	ErrNotDirectory = errors.New("not a directory")
	ErrIsDirectory  = errors.New("is a directory")
)

// errno maps adapter errors to the codes returned to the kernel.
func errno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrTrailingComponent):
		return syscall.ENOENT
	case errors.Is(err, ErrPermission):
		return syscall.EACCES
	case errors.Is(err, ErrNotDirectory):
		return syscall.ENOTDIR
	case errors.Is(err, ErrIsDirectory):
		return syscall.EISDIR
	case errors.Is(err, ErrMalformedPath):
		return syscall.EINVAL
	}
	return syscall.EIO
}
