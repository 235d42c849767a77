// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build linux && cgo

// Package libgbm binds the system gbm library. Importing it registers the
// "libgbm" backend with a higher priority than the software one.
package libgbm

/*
#cgo pkg-config: gbm
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#include <gbm.h>

extern void goDestroyUserData(struct gbm_bo *bo, void *data);

static void destroy_user_data(struct gbm_bo *bo, void *data) {
	goDestroyUserData(bo, data);
}

static void set_user_data(struct gbm_bo *bo, uintptr_t data) {
	if (data == 0) {
		gbm_bo_set_user_data(bo, NULL, NULL);
		return;
	}
	gbm_bo_set_user_data(bo, (void *)data, destroy_user_data);
}

static uintptr_t get_user_data(struct gbm_bo *bo) {
	return (uintptr_t)gbm_bo_get_user_data(bo);
}

static uint64_t get_handle(struct gbm_bo *bo) {
	return gbm_bo_get_handle(bo).u64;
}

static struct gbm_bo *import_fd(struct gbm_device *gbm, int fd, uint32_t width,
		uint32_t height, uint32_t stride, uint32_t format, uint32_t usage) {
	struct gbm_import_fd_data data = {
		.fd = fd,
		.width = width,
		.height = height,
		.stride = stride,
		.format = format,
	};
	return gbm_bo_import(gbm, GBM_BO_IMPORT_FD, &data, usage);
}
*/
import "C"

import (
	"os"
	"unsafe"

	"github.com/devblok/gbm/native"
)

// Name is the registry name of the libgbm backend.
const Name = "libgbm"

func init() {
	native.Register(Name, 100, func() (native.Backend, error) {
		return Backend{}, nil
	}, available)
}

// available reports whether a DRM node exists that gbm could open.
func available() bool {
	nodes := []string{"/dev/dri/renderD128", "/dev/dri/card0"}
	for _, node := range nodes {
		if _, err := os.Stat(node); err == nil {
			return true
		}
	}
	return false
}

// Backend calls straight into libgbm. It carries no state.
type Backend struct{}

func dev(p native.DevicePtr) *C.struct_gbm_device {
	return (*C.struct_gbm_device)(unsafe.Pointer(p))
}

func bo(p native.BoPtr) *C.struct_gbm_bo {
	return (*C.struct_gbm_bo)(unsafe.Pointer(p))
}

func srf(p native.SurfacePtr) *C.struct_gbm_surface {
	return (*C.struct_gbm_surface)(unsafe.Pointer(p))
}

// Name implements native.Backend.
func (Backend) Name() string { return Name }

// CreateDevice implements native.Backend.
func (Backend) CreateDevice(fd int) native.DevicePtr {
	return native.DevicePtr(unsafe.Pointer(C.gbm_create_device(C.int(fd))))
}

// DestroyDevice implements native.Backend.
func (Backend) DestroyDevice(d native.DevicePtr) {
	C.gbm_device_destroy(dev(d))
}

// DeviceFd implements native.Backend.
func (Backend) DeviceFd(d native.DevicePtr) int {
	return int(C.gbm_device_get_fd(dev(d)))
}

// DeviceBackendName implements native.Backend.
func (Backend) DeviceBackendName(d native.DevicePtr) []byte {
	name := C.gbm_device_get_backend_name(dev(d))
	if name == nil {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(name), C.int(C.strlen(name)))
}

// IsFormatSupported implements native.Backend.
func (Backend) IsFormatSupported(d native.DevicePtr, format, usage uint32) bool {
	return C.gbm_device_is_format_supported(dev(d), C.uint32_t(format), C.uint32_t(usage)) != 0
}

// CreateBo implements native.Backend.
func (Backend) CreateBo(d native.DevicePtr, width, height, format, usage uint32) native.BoPtr {
	return native.BoPtr(unsafe.Pointer(C.gbm_bo_create(dev(d),
		C.uint32_t(width), C.uint32_t(height), C.uint32_t(format), C.uint32_t(usage))))
}

// ImportBo implements native.Backend.
func (Backend) ImportBo(d native.DevicePtr, kind native.ImportType, fd *native.FdData, buffer unsafe.Pointer, usage uint32) native.BoPtr {
	var p *C.struct_gbm_bo
	switch kind {
	case native.ImportFd:
		if fd == nil {
			return 0
		}
		p = C.import_fd(dev(d), C.int(fd.Fd), C.uint32_t(fd.Width), C.uint32_t(fd.Height),
			C.uint32_t(fd.Stride), C.uint32_t(fd.Format), C.uint32_t(usage))
	case native.ImportWlBuffer, native.ImportEGLImage:
		if buffer == nil {
			return 0
		}
		p = C.gbm_bo_import(dev(d), C.uint32_t(kind), buffer, C.uint32_t(usage))
	default:
		return 0
	}
	return native.BoPtr(unsafe.Pointer(p))
}

// DestroyBo implements native.Backend. libgbm runs the user data callback
// from inside gbm_bo_destroy.
func (Backend) DestroyBo(b native.BoPtr) {
	C.gbm_bo_destroy(bo(b))
}

// BoWidth implements native.Backend.
func (Backend) BoWidth(b native.BoPtr) uint32 { return uint32(C.gbm_bo_get_width(bo(b))) }

// BoHeight implements native.Backend.
func (Backend) BoHeight(b native.BoPtr) uint32 { return uint32(C.gbm_bo_get_height(bo(b))) }

// BoStride implements native.Backend.
func (Backend) BoStride(b native.BoPtr) uint32 { return uint32(C.gbm_bo_get_stride(bo(b))) }

// BoFormat implements native.Backend.
func (Backend) BoFormat(b native.BoPtr) uint32 { return uint32(C.gbm_bo_get_format(bo(b))) }

// BoDevice implements native.Backend.
func (Backend) BoDevice(b native.BoPtr) native.DevicePtr {
	return native.DevicePtr(unsafe.Pointer(C.gbm_bo_get_device(bo(b))))
}

// BoHandle implements native.Backend.
func (Backend) BoHandle(b native.BoPtr) uint64 { return uint64(C.get_handle(bo(b))) }

// BoFd implements native.Backend.
func (Backend) BoFd(b native.BoPtr) int { return int(C.gbm_bo_get_fd(bo(b))) }

// BoWrite implements native.Backend.
func (Backend) BoWrite(b native.BoPtr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	ret, err := C.gbm_bo_write(bo(b), unsafe.Pointer(&data[0]), C.size_t(len(data)))
	if ret != 0 {
		return err
	}
	return nil
}

// BoSetUserData implements native.Backend. The callback of a replaced
// value is forgotten, not run.
func (Backend) BoSetUserData(b native.BoPtr, data uintptr, destroy native.DestroyFunc) {
	prev := uintptr(C.get_user_data(bo(b)))
	callbacks.Lock()
	if prev != 0 && prev != data {
		delete(callbacks.fns, prev)
	}
	if data != 0 {
		callbacks.fns[data] = destroy
	}
	callbacks.Unlock()
	C.set_user_data(bo(b), C.uintptr_t(data))
}

// BoUserData implements native.Backend.
func (Backend) BoUserData(b native.BoPtr) uintptr {
	return uintptr(C.get_user_data(bo(b)))
}

// CreateSurface implements native.Backend.
func (Backend) CreateSurface(d native.DevicePtr, width, height, format, flags uint32) native.SurfacePtr {
	return native.SurfacePtr(unsafe.Pointer(C.gbm_surface_create(dev(d),
		C.uint32_t(width), C.uint32_t(height), C.uint32_t(format), C.uint32_t(flags))))
}

// DestroySurface implements native.Backend.
func (Backend) DestroySurface(s native.SurfacePtr) {
	C.gbm_surface_destroy(srf(s))
}

// SurfaceLockFrontBuffer implements native.Backend.
func (Backend) SurfaceLockFrontBuffer(s native.SurfacePtr) native.BoPtr {
	return native.BoPtr(unsafe.Pointer(C.gbm_surface_lock_front_buffer(srf(s))))
}

// SurfaceReleaseBuffer implements native.Backend.
func (Backend) SurfaceReleaseBuffer(s native.SurfacePtr, b native.BoPtr) {
	C.gbm_surface_release_buffer(srf(s), bo(b))
}

// SurfaceHasFreeBuffers implements native.Backend.
func (Backend) SurfaceHasFreeBuffers(s native.SurfacePtr) bool {
	return C.gbm_surface_has_free_buffers(srf(s)) != 0
}

// SurfaceNeedsLockFrontBuffer implements native.Backend.
func (Backend) SurfaceNeedsLockFrontBuffer(s native.SurfacePtr) bool {
	return C.gbm_surface_needs_lock_front_buffer(srf(s)) != 0
}
