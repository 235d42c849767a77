// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"errors"
	"io"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/sys/unix"

	"github.com/devblok/gbm/device"
)

var _ io.Writer = (*device.Bo)(nil)

func TestWrite(t *testing.T) {
	c := qt.New(t)
	dev, _ := openDevice(t)

	bo, err := dev.CreateBo(16, 16, device.FormatXRGB8888, device.FlagWrite|device.FlagLinear)
	c.Assert(err, qt.IsNil)
	defer bo.Destroy()

	data := make([]byte, 16*16*4)
	for idx := range data {
		data[idx] = byte(idx)
	}
	n, err := bo.Write(data)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, len(data))
}

func TestWriteFailureReportsNoProgress(t *testing.T) {
	c := qt.New(t)
	dev, backend := openDevice(t)

	bo, err := dev.CreateBo(16, 16, device.FormatXRGB8888, device.FlagWrite)
	c.Assert(err, qt.IsNil)
	defer bo.Destroy()

	backend.FailWrites(unix.ENOSPC)
	n, err := bo.Write([]byte{1, 2, 3, 4})
	c.Assert(n, qt.Equals, 0)
	c.Assert(errors.Is(err, unix.ENOSPC), qt.IsTrue)

	var werr *device.WriteError
	c.Assert(errors.As(err, &werr), qt.IsTrue)
	c.Assert(werr.Len, qt.Equals, 4)
}

func TestExportImport(t *testing.T) {
	c := qt.New(t)
	dev, _ := openDevice(t)

	src, err := dev.CreateBo(32, 8, device.FormatARGB8888, device.FlagLinear)
	c.Assert(err, qt.IsNil)
	defer src.Destroy()
	_, err = src.Write([]byte("pixels"))
	c.Assert(err, qt.IsNil)

	fd, err := src.Fd()
	c.Assert(err, qt.IsNil)
	defer unix.Close(fd)

	imported, err := dev.Import(device.ImportFd{
		Fd:     fd,
		Width:  src.Width(),
		Height: src.Height(),
		Stride: src.Stride(),
		Format: src.Format(),
	}, device.FlagLinear)
	c.Assert(err, qt.IsNil)
	defer imported.Destroy()

	c.Assert(imported.Width(), qt.Equals, uint32(32))
	c.Assert(imported.Stride(), qt.Equals, src.Stride())
	c.Assert(imported.Format(), qt.Equals, device.FormatARGB8888)
	c.Assert(imported.Handle(), qt.Not(qt.Equals), src.Handle())
}

func TestImportFailures(t *testing.T) {
	c := qt.New(t)
	dev, _ := openDevice(t)

	_, err := dev.Import(device.ImportFd{Fd: -1, Width: 4, Height: 4, Stride: 16, Format: device.FormatXRGB8888}, 0)
	c.Assert(errors.Is(err, device.ErrImport), qt.IsTrue)

	src, err := dev.CreateBo(32, 8, device.FormatXRGB8888, device.FlagLinear)
	c.Assert(err, qt.IsNil)
	defer src.Destroy()
	fd, err := src.Fd()
	c.Assert(err, qt.IsNil)
	defer unix.Close(fd)

	// stride shorter than a packed row of the format
	_, err = dev.Import(device.ImportFd{Fd: fd, Width: 32, Height: 8, Stride: 1, Format: device.FormatXRGB8888}, 0)
	c.Assert(errors.Is(err, device.ErrImport), qt.IsTrue)
	_, err = dev.Import(device.ImportFd{Fd: fd, Width: 32, Height: 8, Stride: 127, Format: device.FormatXRGB8888}, 0)
	c.Assert(errors.Is(err, device.ErrImport), qt.IsTrue)

	// more rows than the descriptor holds
	_, err = dev.Import(device.ImportFd{Fd: fd, Width: 32, Height: 9, Stride: 128, Format: device.FormatXRGB8888}, 0)
	c.Assert(errors.Is(err, device.ErrImport), qt.IsTrue)

	var image int
	_, err = dev.Import(device.ImportEGLImage{Image: unsafe.Pointer(&image)}, 0)
	c.Assert(errors.Is(err, device.ErrImport), qt.IsTrue)

	_, err = dev.Import(nil, 0)
	c.Assert(err, qt.Equals, device.ErrUnknownImport)
}

func TestDestroyIsIdempotent(t *testing.T) {
	c := qt.New(t)
	dev, backend := openDevice(t)

	bo, err := dev.CreateBo(4, 4, device.FormatXRGB8888, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(bo.Valid(), qt.IsTrue)

	c.Assert(bo.Destroy(), qt.IsNil)
	c.Assert(bo.Destroy(), qt.IsNil)
	c.Assert(bo.Valid(), qt.IsFalse)
	c.Assert(bo.Width(), qt.Equals, uint32(0))

	_, err = bo.Write([]byte{0})
	c.Assert(err, qt.Equals, device.ErrDestroyed)
	_, err = bo.Fd()
	c.Assert(err, qt.Equals, device.ErrDestroyed)

	_, bos, _ := backend.Live()
	c.Assert(bos, qt.Equals, 0)
}

func TestNilHandlesDestroy(t *testing.T) {
	c := qt.New(t)
	var bo *device.Bo
	var srf *device.Surface
	c.Assert(bo.Destroy(), qt.IsNil)
	c.Assert(srf.Destroy(), qt.IsNil)
}

func TestBoDeviceAgreesWithNative(t *testing.T) {
	c := qt.New(t)
	dev, backend := openDevice(t)
	hook := test.NewGlobal()
	defer hook.Reset()

	bo, err := dev.CreateBo(4, 4, device.FormatXRGB8888, 0)
	c.Assert(err, qt.IsNil)
	defer bo.Destroy()

	c.Assert(bo.Device(), qt.Equals, dev)
	c.Assert(backend.BoDevice(bo.Native()), qt.Equals, dev.Native())
	for _, entry := range hook.AllEntries() {
		c.Check(entry.Level > log.WarnLevel, qt.IsTrue, qt.Commentf("%s", entry.Message))
	}
}
