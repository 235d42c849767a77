// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package native describes the raw buffer manager boundary. A Backend is a
// thin, unsafe mirror of the gbm C API: it hands out opaque pointers, signals
// failure with null pointers and knows nothing about ownership. The device
// package builds the owned handles on top of it.
package native

import "unsafe"

// Opaque native pointers. Zero is null.
type (
	DevicePtr  uintptr
	BoPtr      uintptr
	SurfacePtr uintptr
)

// Import types understood by ImportBo, as numbered by gbm.h.
const (
	ImportWlBuffer ImportType = 0x5501
	ImportEGLImage ImportType = 0x5502
	ImportFd       ImportType = 0x5503
)

// ImportType selects the kind of source passed to Backend.ImportBo.
type ImportType uint32

// FdData describes a dma-buf descriptor to import. Mirrors gbm_import_fd_data.
type FdData struct {
	Fd     int
	Width  uint32
	Height uint32
	Stride uint32
	Format uint32
}

// DestroyFunc is invoked by the backend once per attached user data pointer,
// while the buffer it is attached to is being torn down. It must not call
// back into the backend for the same buffer.
type DestroyFunc func(bo BoPtr, data uintptr)

// Backend is the set of foreign calls the device package relies on.
// None of the methods are safe for concurrent use on the same object.
type Backend interface {
	// Name identifies the backend in the registry.
	Name() string

	CreateDevice(fd int) DevicePtr
	DestroyDevice(dev DevicePtr)
	DeviceFd(dev DevicePtr) int
	// DeviceBackendName returns the raw, unvalidated backend name bytes.
	DeviceBackendName(dev DevicePtr) []byte
	IsFormatSupported(dev DevicePtr, format, usage uint32) bool

	CreateBo(dev DevicePtr, width, height, format, usage uint32) BoPtr
	// ImportBo imports a buffer owned elsewhere. fd is used for ImportFd,
	// buffer for the pointer based import types.
	ImportBo(dev DevicePtr, kind ImportType, fd *FdData, buffer unsafe.Pointer, usage uint32) BoPtr
	DestroyBo(bo BoPtr)

	BoWidth(bo BoPtr) uint32
	BoHeight(bo BoPtr) uint32
	BoStride(bo BoPtr) uint32
	BoFormat(bo BoPtr) uint32
	BoDevice(bo BoPtr) DevicePtr
	BoHandle(bo BoPtr) uint64
	// BoFd exports a new descriptor, or -1.
	BoFd(bo BoPtr) int
	// BoWrite uploads data, returning the OS error on failure.
	BoWrite(bo BoPtr, data []byte) error
	// BoSetUserData replaces the user data slot. It does not run the
	// previous destroy callback.
	BoSetUserData(bo BoPtr, data uintptr, destroy DestroyFunc)
	BoUserData(bo BoPtr) uintptr

	CreateSurface(dev DevicePtr, width, height, format, flags uint32) SurfacePtr
	DestroySurface(srf SurfacePtr)
	SurfaceLockFrontBuffer(srf SurfacePtr) BoPtr
	SurfaceReleaseBuffer(srf SurfacePtr, bo BoPtr)
	SurfaceHasFreeBuffers(srf SurfacePtr) bool
	SurfaceNeedsLockFrontBuffer(srf SurfacePtr) bool
}
