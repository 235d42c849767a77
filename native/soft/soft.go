// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package soft is a software buffer manager. Buffers live in memfd backed
// shared mappings, so exported descriptors behave like linear dma-bufs and
// can be mapped or imported again. Surfaces keep a fixed pool of buffers and
// treat every lock as a finished frame.
package soft

import (
	"sync"
	"unsafe"

	"github.com/devblok/gbm/native"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Name is the registry name of the software backend.
const Name = "soft"

// DefaultPoolSize is the number of buffers a surface cycles through.
const DefaultPoolSize = 3

func init() {
	native.Register(Name, 10, func() (native.Backend, error) {
		return New(), nil
	}, nil)
}

// Option configures a Backend.
type Option func(*Backend)

// WithPoolSize sets the number of buffers per surface.
func WithPoolSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.poolSize = n
		}
	}
}

// WithBackendName overrides the name reported by DeviceBackendName.
func WithBackendName(name []byte) Option {
	return func(b *Backend) {
		b.backendName = name
	}
}

// New creates a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		poolSize:    DefaultPoolSize,
		backendName: []byte(Name),
		devices:     make(map[native.DevicePtr]*device),
		bos:         make(map[native.BoPtr]*bo),
		surfaces:    make(map[native.SurfacePtr]*surface),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Backend implements native.Backend in memory.
type Backend struct {
	mutex sync.Mutex
	next  uintptr

	poolSize    int
	backendName []byte
	writeErr    unix.Errno

	devices  map[native.DevicePtr]*device
	bos      map[native.BoPtr]*bo
	surfaces map[native.SurfacePtr]*surface
}

type device struct {
	fd int
}

type bo struct {
	dev                          native.DevicePtr
	width, height, stride, usage uint32
	format                       uint32

	memfd int
	mem   []byte

	userData uintptr
	destroy  native.DestroyFunc

	// pool is set for buffers owned by a surface.
	pool native.SurfacePtr
}

type slot struct {
	bo     native.BoPtr
	locked bool
}

type surface struct {
	dev                          native.DevicePtr
	width, height, format, flags uint32
	slots                        []slot
	cursor                       int
}

// FailWrites makes every following BoWrite fail with errno. Zero restores
// normal writes.
func (b *Backend) FailWrites(errno unix.Errno) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.writeErr = errno
}

// Live reports how many native objects are currently allocated.
func (b *Backend) Live() (devices, bos, surfaces int) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.devices), len(b.bos), len(b.surfaces)
}

// Name implements native.Backend.
func (b *Backend) Name() string {
	return Name
}

func (b *Backend) id() uintptr {
	b.next++
	return b.next
}

// CreateDevice implements native.Backend. The descriptor only has to be open.
func (b *Backend) CreateDevice(fd int) native.DevicePtr {
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0); err != nil {
		log.WithFields(log.Fields{"fd": fd, "error": err}).Debug("soft: rejecting device descriptor")
		return 0
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	ptr := native.DevicePtr(b.id())
	b.devices[ptr] = &device{fd: fd}
	return ptr
}

// DestroyDevice implements native.Backend.
func (b *Backend) DestroyDevice(dev native.DevicePtr) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.devices, dev)
}

// DeviceFd implements native.Backend.
func (b *Backend) DeviceFd(dev native.DevicePtr) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if d, ok := b.devices[dev]; ok {
		return d.fd
	}
	return -1
}

// DeviceBackendName implements native.Backend.
func (b *Backend) DeviceBackendName(dev native.DevicePtr) []byte {
	return b.backendName
}

// IsFormatSupported implements native.Backend.
func (b *Backend) IsFormatSupported(dev native.DevicePtr, format, usage uint32) bool {
	_, ok := supported(format, usage)
	return ok
}

// CreateBo implements native.Backend.
func (b *Backend) CreateBo(dev native.DevicePtr, width, height, format, usage uint32) native.BoPtr {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.createBo(dev, width, height, format, usage)
}

func (b *Backend) createBo(dev native.DevicePtr, width, height, format, usage uint32) native.BoPtr {
	if _, ok := b.devices[dev]; !ok || width == 0 || height == 0 {
		return 0
	}
	l, ok := supported(format, usage)
	if !ok {
		return 0
	}
	stride, size, ok := l.size(width, height, usage)
	if !ok {
		return 0
	}

	memfd, err := unix.MemfdCreate("gbm-soft-bo", unix.MFD_CLOEXEC)
	if err != nil {
		log.WithField("error", err).Debug("soft: memfd_create failed")
		return 0
	}
	if err := unix.Ftruncate(memfd, int64(size)); err != nil {
		unix.Close(memfd)
		return 0
	}
	mem, err := unix.Mmap(memfd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(memfd)
		return 0
	}

	ptr := native.BoPtr(b.id())
	b.bos[ptr] = &bo{
		dev:    dev,
		width:  width,
		height: height,
		stride: stride,
		usage:  usage,
		format: canonical(format),
		memfd:  memfd,
		mem:    mem,
	}
	return ptr
}

// ImportBo implements native.Backend. Only descriptor imports are possible
// without a display server or EGL.
func (b *Backend) ImportBo(dev native.DevicePtr, kind native.ImportType, fd *native.FdData, buffer unsafe.Pointer, usage uint32) native.BoPtr {
	if kind != native.ImportFd || fd == nil {
		return 0
	}
	l, ok := supported(fd.Format, usage)
	if !ok || fd.Width == 0 || fd.Height == 0 {
		return 0
	}
	if uint64(fd.Stride) < l.minStride(fd.Width) {
		return 0
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd.Fd, &stat); err != nil {
		return 0
	}
	if stat.Size < 0 || uint64(stat.Size) < uint64(fd.Stride)*uint64(fd.Height) {
		return 0
	}
	dup, err := unix.FcntlInt(uintptr(fd.Fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return 0
	}
	mem, err := unix.Mmap(dup, 0, int(stat.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(dup)
		return 0
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, ok := b.devices[dev]; !ok {
		unix.Munmap(mem)
		unix.Close(dup)
		return 0
	}
	ptr := native.BoPtr(b.id())
	b.bos[ptr] = &bo{
		dev:    dev,
		width:  fd.Width,
		height: fd.Height,
		stride: fd.Stride,
		usage:  usage,
		format: canonical(fd.Format),
		memfd:  dup,
		mem:    mem,
	}
	return ptr
}

// DestroyBo implements native.Backend. Buffers that belong to a surface
// pool are left alone; the pool frees them.
func (b *Backend) DestroyBo(ptr native.BoPtr) {
	b.mutex.Lock()
	o, ok := b.bos[ptr]
	if !ok || o.pool != 0 {
		b.mutex.Unlock()
		return
	}
	delete(b.bos, ptr)
	b.mutex.Unlock()

	b.teardown(ptr, o)
}

// teardown runs the user data callback and frees memory. It must be called
// without the mutex held, the callback may reenter the backend for other
// objects.
func (b *Backend) teardown(ptr native.BoPtr, o *bo) {
	if o.userData != 0 && o.destroy != nil {
		o.destroy(ptr, o.userData)
	}
	o.userData, o.destroy = 0, nil
	if err := unix.Munmap(o.mem); err != nil {
		log.WithField("error", err).Warn("soft: munmap failed")
	}
	unix.Close(o.memfd)
}

func (b *Backend) lookup(ptr native.BoPtr) *bo {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.bos[ptr]
}

// BoWidth implements native.Backend.
func (b *Backend) BoWidth(ptr native.BoPtr) uint32 {
	if o := b.lookup(ptr); o != nil {
		return o.width
	}
	return 0
}

// BoHeight implements native.Backend.
func (b *Backend) BoHeight(ptr native.BoPtr) uint32 {
	if o := b.lookup(ptr); o != nil {
		return o.height
	}
	return 0
}

// BoStride implements native.Backend.
func (b *Backend) BoStride(ptr native.BoPtr) uint32 {
	if o := b.lookup(ptr); o != nil {
		return o.stride
	}
	return 0
}

// BoFormat implements native.Backend.
func (b *Backend) BoFormat(ptr native.BoPtr) uint32 {
	if o := b.lookup(ptr); o != nil {
		return o.format
	}
	return 0
}

// BoDevice implements native.Backend.
func (b *Backend) BoDevice(ptr native.BoPtr) native.DevicePtr {
	if o := b.lookup(ptr); o != nil {
		return o.dev
	}
	return 0
}

// BoHandle implements native.Backend. The pointer doubles as the handle.
func (b *Backend) BoHandle(ptr native.BoPtr) uint64 {
	if o := b.lookup(ptr); o != nil {
		return uint64(ptr)
	}
	return 0
}

// BoFd implements native.Backend.
func (b *Backend) BoFd(ptr native.BoPtr) int {
	o := b.lookup(ptr)
	if o == nil {
		return -1
	}
	fd, err := unix.FcntlInt(uintptr(o.memfd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1
	}
	return fd
}

// BoWrite implements native.Backend.
func (b *Backend) BoWrite(ptr native.BoPtr, data []byte) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.writeErr != 0 {
		return b.writeErr
	}
	o, ok := b.bos[ptr]
	if !ok {
		return unix.EBADF
	}
	if len(data) > len(o.mem) {
		return unix.EINVAL
	}
	copy(o.mem, data)
	return nil
}

// BoSetUserData implements native.Backend.
func (b *Backend) BoSetUserData(ptr native.BoPtr, data uintptr, destroy native.DestroyFunc) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if o, ok := b.bos[ptr]; ok {
		o.userData, o.destroy = data, destroy
	}
}

// BoUserData implements native.Backend.
func (b *Backend) BoUserData(ptr native.BoPtr) uintptr {
	if o := b.lookup(ptr); o != nil {
		return o.userData
	}
	return 0
}

// CreateSurface implements native.Backend. Buffers are allocated lazily on
// first lock.
func (b *Backend) CreateSurface(dev native.DevicePtr, width, height, format, flags uint32) native.SurfacePtr {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if _, ok := b.devices[dev]; !ok || width == 0 || height == 0 {
		return 0
	}
	if _, ok := supported(format, flags); !ok {
		return 0
	}
	ptr := native.SurfacePtr(b.id())
	b.surfaces[ptr] = &surface{
		dev:    dev,
		width:  width,
		height: height,
		format: format,
		flags:  flags,
		slots:  make([]slot, b.poolSize),
	}
	return ptr
}

// DestroySurface implements native.Backend. Every pool buffer is torn down,
// locked or not.
func (b *Backend) DestroySurface(ptr native.SurfacePtr) {
	b.mutex.Lock()
	s, ok := b.surfaces[ptr]
	if !ok {
		b.mutex.Unlock()
		return
	}
	delete(b.surfaces, ptr)
	var pool []native.BoPtr
	var objects []*bo
	for _, sl := range s.slots {
		if sl.bo == 0 {
			continue
		}
		if o, ok := b.bos[sl.bo]; ok {
			delete(b.bos, sl.bo)
			pool = append(pool, sl.bo)
			objects = append(objects, o)
		}
	}
	b.mutex.Unlock()

	for idx := range pool {
		b.teardown(pool[idx], objects[idx])
	}
}

// SurfaceLockFrontBuffer implements native.Backend.
func (b *Backend) SurfaceLockFrontBuffer(ptr native.SurfacePtr) native.BoPtr {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.surfaces[ptr]
	if !ok {
		return 0
	}
	for n := 0; n < len(s.slots); n++ {
		idx := (s.cursor + n) % len(s.slots)
		if s.slots[idx].locked {
			continue
		}
		if s.slots[idx].bo == 0 {
			bo := b.createBo(s.dev, s.width, s.height, s.format, s.flags)
			if bo == 0 {
				return 0
			}
			b.bos[bo].pool = ptr
			s.slots[idx].bo = bo
		}
		s.slots[idx].locked = true
		s.cursor = (idx + 1) % len(s.slots)
		return s.slots[idx].bo
	}
	return 0
}

// SurfaceReleaseBuffer implements native.Backend.
func (b *Backend) SurfaceReleaseBuffer(ptr native.SurfacePtr, bo native.BoPtr) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.surfaces[ptr]
	if !ok {
		return
	}
	for idx := range s.slots {
		if s.slots[idx].bo == bo {
			s.slots[idx].locked = false
			return
		}
	}
}

// SurfaceHasFreeBuffers implements native.Backend.
func (b *Backend) SurfaceHasFreeBuffers(ptr native.SurfacePtr) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s, ok := b.surfaces[ptr]
	if !ok {
		return false
	}
	for _, sl := range s.slots {
		if !sl.locked {
			return true
		}
	}
	return false
}

// SurfaceNeedsLockFrontBuffer implements native.Backend.
func (b *Backend) SurfaceNeedsLockFrontBuffer(ptr native.SurfacePtr) bool {
	return true
}
