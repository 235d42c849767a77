// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device owns gbm objects. A Device, Bo or Surface wraps exactly one
// native pointer and releases it exactly once. None of the handles are safe
// for concurrent use; share them between goroutines only with external
// locking.
package device

import (
	"fmt"
	"runtime"
	"sync"
	"unicode/utf8"

	"github.com/devblok/gbm/native"
	log "github.com/sirupsen/logrus"
)

// noCopy makes go vet flag copies of handles. Handles own native memory, a
// copy would be a second owner.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// FormatSupport lists the usages a device accepts for one format.
type FormatSupport struct {
	Format Format   `json:"-"`
	Name   string   `json:"format"`
	Usage  []string `json:"usage"`
}

// Info describes an open device.
type Info struct {
	Fd      int             `json:"fd"`
	Backend string          `json:"backend"`
	Formats []FormatSupport `json:"formats"`
}

// Device is an open buffer manager context.
type Device struct {
	_ noCopy

	backend native.Backend
	ptr     native.DevicePtr

	// live children, guarded by mutex
	mutex    sync.Mutex
	bos      int
	surfaces int
}

// Create opens a device on fd with the best available backend. The
// descriptor is not owned by the Device and must stay open until Destroy.
func Create(fd int) (*Device, error) {
	backend, err := native.Default()
	if err != nil {
		return nil, err
	}
	return CreateWithBackend(backend, fd)
}

// CreateWithBackend opens a device on fd with the given backend.
func CreateWithBackend(backend native.Backend, fd int) (*Device, error) {
	ptr := backend.CreateDevice(fd)
	if ptr == 0 {
		return nil, fmt.Errorf("gbm_create_device(%d): %w", fd, ErrDeviceCreation)
	}
	d := &Device{
		backend: backend,
		ptr:     ptr,
	}
	runtime.SetFinalizer(d, func(d *Device) {
		if d.ptr != 0 {
			log.WithField("backend", d.backend.Name()).Warn("gbm: device collected without Destroy")
		}
	})
	log.WithFields(log.Fields{
		"backend": backend.Name(),
		"fd":      fd,
	}).Debug("gbm: device created")
	return d, nil
}

// Native returns the raw device pointer, e.g. to hand to EGL as a native
// display. The pointer stays owned by d.
func (d *Device) Native() native.DevicePtr {
	return d.ptr
}

// Backend returns the native backend the device was opened with.
func (d *Device) Backend() native.Backend {
	return d.backend
}

// Fd returns the descriptor the device was opened on, or -1 once destroyed.
func (d *Device) Fd() int {
	if d.ptr == 0 {
		return -1
	}
	return d.backend.DeviceFd(d.ptr)
}

// BackendName returns the name the native layer reports for itself.
func (d *Device) BackendName() (string, error) {
	if d.ptr == 0 {
		return "", ErrDestroyed
	}
	name := d.backend.DeviceBackendName(d.ptr)
	if !utf8.Valid(name) {
		return "", fmt.Errorf("gbm_device_get_backend_name(): %w", ErrBackendName)
	}
	return string(name), nil
}

// IsFormatSupported reports whether buffers of format can be allocated for
// usage.
func (d *Device) IsFormatSupported(format Format, usage Flags) bool {
	if d.ptr == 0 {
		return false
	}
	return d.backend.IsFormatSupported(d.ptr, format.Code(), uint32(usage))
}

// Info queries every catalog format against no usage and each single usage
// bit.
func (d *Device) Info() (Info, error) {
	name, err := d.BackendName()
	if err != nil {
		return Info{}, err
	}
	info := Info{
		Fd:      d.Fd(),
		Backend: name,
	}
	for _, format := range Formats() {
		support := FormatSupport{
			Format: format,
			Name:   format.String(),
		}
		if d.IsFormatSupported(format, 0) {
			support.Usage = append(support.Usage, Flags(0).String())
		}
		for _, n := range flagNames {
			if d.IsFormatSupported(format, n.flag) {
				support.Usage = append(support.Usage, n.name)
			}
		}
		info.Formats = append(info.Formats, support)
	}
	return info, nil
}

// CreateBo allocates a buffer object.
func (d *Device) CreateBo(width, height uint32, format Format, usage Flags) (*Bo, error) {
	if d.ptr == 0 {
		return nil, ErrDestroyed
	}
	ptr := d.backend.CreateBo(d.ptr, width, height, format.Code(), uint32(usage))
	if ptr == 0 {
		return nil, fmt.Errorf("gbm_bo_create(%dx%d %s %s): %w", width, height, format, usage, ErrBoCreation)
	}
	return d.adoptBo(ptr), nil
}

// CreateSurface creates a presentation surface.
func (d *Device) CreateSurface(width, height uint32, format Format, usage Flags) (*Surface, error) {
	if d.ptr == 0 {
		return nil, ErrDestroyed
	}
	ptr := d.backend.CreateSurface(d.ptr, width, height, format.Code(), uint32(usage))
	if ptr == 0 {
		return nil, fmt.Errorf("gbm_surface_create(%dx%d %s %s): %w", width, height, format, usage, ErrSurfaceCreation)
	}
	d.mutex.Lock()
	d.surfaces++
	d.mutex.Unlock()
	return newSurface(d, ptr), nil
}

// Destroy releases the native context. It refuses while buffers or
// surfaces created from the device are alive, since destroying the context
// would leave them dangling. Destroying twice is a no-op.
func (d *Device) Destroy() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.ptr == 0 {
		return nil
	}
	if d.bos > 0 || d.surfaces > 0 {
		return fmt.Errorf("%w: %d buffers, %d surfaces", ErrDeviceInUse, d.bos, d.surfaces)
	}
	d.backend.DestroyDevice(d.ptr)
	d.ptr = 0
	runtime.SetFinalizer(d, nil)
	log.WithField("backend", d.backend.Name()).Debug("gbm: device destroyed")
	return nil
}

func (d *Device) adoptBo(ptr native.BoPtr) *Bo {
	d.mutex.Lock()
	d.bos++
	d.mutex.Unlock()
	return newBo(d, ptr, nil)
}

func (d *Device) forgetBo() {
	d.mutex.Lock()
	d.bos--
	d.mutex.Unlock()
}

func (d *Device) forgetSurface() {
	d.mutex.Lock()
	d.surfaces--
	d.mutex.Unlock()
}
