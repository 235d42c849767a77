// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"errors"
	"fmt"
)

// package errors
var (
	ErrDeviceCreation  = errors.New("failed to create gbm_device")
	ErrDeviceInUse     = errors.New("device still has live buffers or surfaces")
	ErrBackendName     = errors.New("backend name is not valid UTF-8")
	ErrBoCreation      = errors.New("failed to create gbm_bo")
	ErrSurfaceCreation = errors.New("failed to create gbm_surface")
	ErrImport          = errors.New("failed to import gbm_bo")
	ErrUnknownImport   = errors.New("unknown import source")
	ErrExport          = errors.New("failed to export gbm_bo descriptor")
	ErrUnknownFormat   = errors.New("unknown pixel format")

	ErrDestroyed     = errors.New("handle already destroyed")
	ErrBorrowed      = errors.New("buffer is locked from a surface, release it instead")
	ErrNoFrontBuffer = errors.New("surface has no front buffer to lock")
	ErrForeignBuffer = errors.New("buffer was not locked from this surface")

	ErrUserDataSet  = errors.New("buffer already carries user data")
	ErrNoUserData   = errors.New("buffer carries no user data")
	ErrUserDataLost = errors.New("user data handle is not registered")
)

// WriteError is returned by Bo.Write when the native upload fails.
type WriteError struct {
	Len int
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("gbm_bo_write(%d bytes): %s", e.Len, e.Err)
}

// Unwrap returns the OS error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
