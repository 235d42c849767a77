// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"runtime"

	"github.com/devblok/gbm/native"
	log "github.com/sirupsen/logrus"
)

// Surface is a pool of buffers a renderer draws into and a display reads
// from. The front buffer is borrowed with LockFrontBuffer and returned with
// ReleaseBuffer; nothing is recycled implicitly.
type Surface struct {
	_ noCopy

	dev *Device
	ptr native.SurfacePtr

	// locked maps buffers currently borrowed from the pool to their handle
	locked map[native.BoPtr]*Bo
}

func newSurface(dev *Device, ptr native.SurfacePtr) *Surface {
	s := &Surface{
		dev:    dev,
		ptr:    ptr,
		locked: make(map[native.BoPtr]*Bo),
	}
	runtime.SetFinalizer(s, func(s *Surface) {
		if s.ptr != 0 {
			log.WithField("surface", s.ptr).Warn("gbm: surface collected without Destroy")
		}
	})
	return s
}

// Native returns the raw pointer, e.g. to hand to EGL as a native window.
func (s *Surface) Native() native.SurfacePtr {
	return s.ptr
}

// Device returns the device the surface was created on.
func (s *Surface) Device() *Device {
	return s.dev
}

// NeedsLockFrontBuffer reports whether the surface wants LockFrontBuffer
// called after each frame.
func (s *Surface) NeedsLockFrontBuffer() bool {
	if s.ptr == 0 {
		return false
	}
	return s.dev.backend.SurfaceNeedsLockFrontBuffer(s.ptr)
}

// HasFreeBuffers reports whether the pool has a buffer left to render to.
func (s *Surface) HasFreeBuffers() bool {
	if s.ptr == 0 {
		return false
	}
	return s.dev.backend.SurfaceHasFreeBuffers(s.ptr)
}

// Locked returns the number of buffers currently borrowed.
func (s *Surface) Locked() int {
	return len(s.locked)
}

// LockFrontBuffer borrows the current front buffer. It returns
// ErrNoFrontBuffer when the pool has nothing to give. The returned Bo must
// be handed back with ReleaseBuffer, its Destroy refuses.
func (s *Surface) LockFrontBuffer() (*Bo, error) {
	if s.ptr == 0 {
		return nil, ErrDestroyed
	}
	ptr := s.dev.backend.SurfaceLockFrontBuffer(s.ptr)
	if ptr == 0 {
		return nil, ErrNoFrontBuffer
	}
	if prev, ok := s.locked[ptr]; ok {
		// the pool handed out a buffer we still hold, the old handle is stale
		prev.disarm()
	}
	bo := newBo(s.dev, ptr, s)
	s.locked[ptr] = bo
	log.WithFields(log.Fields{"surface": s.ptr, "bo": ptr}).Debug("gbm: front buffer locked")
	return bo, nil
}

// ReleaseBuffer gives a locked buffer back to the pool. The buffer is not
// destroyed and its user data stays attached; bo itself becomes invalid.
func (s *Surface) ReleaseBuffer(bo *Bo) error {
	if s.ptr == 0 {
		return ErrDestroyed
	}
	if !bo.Valid() {
		return ErrDestroyed
	}
	if bo.surface != s || s.locked[bo.ptr] != bo {
		return ErrForeignBuffer
	}
	s.dev.backend.SurfaceReleaseBuffer(s.ptr, bo.ptr)
	delete(s.locked, bo.ptr)
	log.WithFields(log.Fields{"surface": s.ptr, "bo": bo.ptr}).Debug("gbm: buffer released")
	bo.disarm()
	return nil
}

// Destroy releases the surface and every buffer in its pool. Buffers still
// locked become invalid. Destroying twice is a no-op.
func (s *Surface) Destroy() error {
	if s == nil || s.ptr == 0 {
		return nil
	}
	for ptr, bo := range s.locked {
		bo.disarm()
		delete(s.locked, ptr)
	}
	s.dev.backend.DestroySurface(s.ptr)
	log.WithField("surface", s.ptr).Debug("gbm: surface destroyed")
	s.ptr = 0
	s.dev.forgetSurface()
	runtime.SetFinalizer(s, nil)
	return nil
}
