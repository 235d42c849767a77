// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"runtime"

	"github.com/devblok/gbm/native"
	log "github.com/sirupsen/logrus"
)

// Handle is the driver specific handle of a buffer, usually a GEM handle.
type Handle uint32

// Bo is a buffer object. A Bo is either owned, created by CreateBo or
// Import and released with Destroy, or borrowed from a Surface by
// LockFrontBuffer and handed back with Surface.ReleaseBuffer.
type Bo struct {
	_ noCopy

	dev *Device
	ptr native.BoPtr

	// surface is set while the buffer is locked from it
	surface *Surface
}

func newBo(dev *Device, ptr native.BoPtr, surface *Surface) *Bo {
	b := &Bo{
		dev:     dev,
		ptr:     ptr,
		surface: surface,
	}
	if surface == nil {
		runtime.SetFinalizer(b, func(b *Bo) {
			if b.ptr != 0 {
				log.WithField("bo", b.ptr).Warn("gbm: buffer object collected without Destroy")
			}
		})
	}
	return b
}

// Valid reports whether b still refers to a native buffer.
func (b *Bo) Valid() bool {
	return b != nil && b.ptr != 0
}

// Native returns the raw pointer, e.g. to hand to EGL as a native pixmap.
func (b *Bo) Native() native.BoPtr {
	return b.ptr
}

// Width in pixels.
func (b *Bo) Width() uint32 {
	if b.ptr == 0 {
		return 0
	}
	return b.dev.backend.BoWidth(b.ptr)
}

// Height in pixels.
func (b *Bo) Height() uint32 {
	if b.ptr == 0 {
		return 0
	}
	return b.dev.backend.BoHeight(b.ptr)
}

// Stride in bytes.
func (b *Bo) Stride() uint32 {
	if b.ptr == 0 {
		return 0
	}
	return b.dev.backend.BoStride(b.ptr)
}

// Format returns the pixel format. Codes missing from the catalog are
// returned as is, check Known to tell them apart.
func (b *Bo) Format() Format {
	if b.ptr == 0 {
		return 0
	}
	return Format(b.dev.backend.BoFormat(b.ptr))
}

// Handle returns the driver handle.
func (b *Bo) Handle() Handle {
	if b.ptr == 0 {
		return 0
	}
	return Handle(b.dev.backend.BoHandle(b.ptr))
}

// Device returns the device the buffer was allocated from. The Device is
// not owned by the caller. A native layer disagreeing about the owner is
// logged.
func (b *Bo) Device() *Device {
	if b.ptr != 0 {
		if owner := b.dev.backend.BoDevice(b.ptr); owner != b.dev.ptr {
			log.WithFields(log.Fields{
				"bo":     b.ptr,
				"device": b.dev.ptr,
				"native": owner,
			}).Warn("gbm: buffer reports a different device")
		}
	}
	return b.dev
}

// Fd exports the buffer as a dma-buf. The descriptor belongs to the caller.
func (b *Bo) Fd() (int, error) {
	if b.ptr == 0 {
		return -1, ErrDestroyed
	}
	fd := b.dev.backend.BoFd(b.ptr)
	if fd < 0 {
		return -1, fmt.Errorf("gbm_bo_get_fd(): %w", ErrExport)
	}
	return fd, nil
}

// Write uploads p into the buffer. Either all of p is written or none of it
// and the returned error is a *WriteError carrying the OS error.
func (b *Bo) Write(p []byte) (int, error) {
	if b.ptr == 0 {
		return 0, ErrDestroyed
	}
	if err := b.dev.backend.BoWrite(b.ptr, p); err != nil {
		return 0, &WriteError{Len: len(p), Err: err}
	}
	return len(p), nil
}

// Destroy releases an owned buffer. The native layer runs the cleanup of
// attached user data while tearing the buffer down. Buffers locked from a
// surface can't be destroyed, they go back with Surface.ReleaseBuffer.
// Destroying twice is a no-op.
func (b *Bo) Destroy() error {
	if b == nil || b.ptr == 0 {
		return nil
	}
	if b.surface != nil {
		return ErrBorrowed
	}
	b.dev.backend.DestroyBo(b.ptr)
	log.WithField("bo", b.ptr).Debug("gbm: buffer object destroyed")
	b.ptr = 0
	b.dev.forgetBo()
	runtime.SetFinalizer(b, nil)
	return nil
}

// disarm drops the native pointer without destroying it. Used when
// ownership goes back to a surface pool.
func (b *Bo) disarm() {
	b.ptr = 0
	b.surface = nil
}
