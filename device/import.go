// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"unsafe"

	"github.com/devblok/gbm/native"
)

// Import describes a buffer owned elsewhere. Implemented by ImportFd,
// ImportWlBuffer and ImportEGLImage only.
type Import interface {
	importType() native.ImportType
}

// ImportFd imports a dma-buf descriptor. The descriptor stays owned by the
// caller.
type ImportFd struct {
	Fd     int
	Width  uint32
	Height uint32
	Stride uint32
	Format Format
}

// ImportWlBuffer imports a wl_buffer resource of a compositor.
type ImportWlBuffer struct {
	Buffer unsafe.Pointer
}

// ImportEGLImage imports an EGLImageKHR.
type ImportEGLImage struct {
	Image unsafe.Pointer
}

func (ImportFd) importType() native.ImportType       { return native.ImportFd }
func (ImportWlBuffer) importType() native.ImportType { return native.ImportWlBuffer }
func (ImportEGLImage) importType() native.ImportType { return native.ImportEGLImage }

// Import creates a buffer object from src. The result is owned like one
// from CreateBo.
func (d *Device) Import(src Import, usage Flags) (*Bo, error) {
	if d.ptr == 0 {
		return nil, ErrDestroyed
	}
	var ptr native.BoPtr
	switch s := src.(type) {
	case ImportFd:
		ptr = d.backend.ImportBo(d.ptr, native.ImportFd, &native.FdData{
			Fd:     s.Fd,
			Width:  s.Width,
			Height: s.Height,
			Stride: s.Stride,
			Format: s.Format.Code(),
		}, nil, uint32(usage))
	case ImportWlBuffer:
		ptr = d.backend.ImportBo(d.ptr, native.ImportWlBuffer, nil, s.Buffer, uint32(usage))
	case ImportEGLImage:
		ptr = d.backend.ImportBo(d.ptr, native.ImportEGLImage, nil, s.Image, uint32(usage))
	default:
		return nil, ErrUnknownImport
	}
	if ptr == 0 {
		return nil, fmt.Errorf("gbm_bo_import(0x%x): %w", uint32(src.importType()), ErrImport)
	}
	return d.adoptBo(ptr), nil
}
