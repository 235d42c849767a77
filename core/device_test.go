// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/gbm/core"
	"github.com/devblok/gbm/device"
	"github.com/devblok/gbm/native"
)

func TestOpenDeviceSoft(t *testing.T) {
	c := qt.New(t)
	session, err := core.OpenDevice(core.DeviceConfiguration{
		Path:           os.DevNull,
		Backend:        "soft",
		SurfaceBuffers: 2,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(session.Device.Backend().Name(), qt.Equals, "soft")

	srf, err := session.Device.CreateSurface(16, 16, device.FormatXRGB8888, device.NewFlags().Rendering(true))
	c.Assert(err, qt.IsNil)
	_, err = srf.LockFrontBuffer()
	c.Assert(err, qt.IsNil)
	_, err = srf.LockFrontBuffer()
	c.Assert(err, qt.IsNil)
	_, err = srf.LockFrontBuffer()
	c.Assert(err, qt.ErrorIs, device.ErrNoFrontBuffer)

	c.Assert(session.Close(), qt.ErrorIs, device.ErrDeviceInUse)
	c.Assert(srf.Destroy(), qt.IsNil)
	c.Assert(session.Close(), qt.IsNil)
}

func TestOpenDeviceErrors(t *testing.T) {
	c := qt.New(t)
	_, err := core.OpenDevice(core.DeviceConfiguration{Path: os.DevNull, Backend: "missing"})
	c.Assert(err, qt.ErrorIs, native.ErrUnknownBackend)

	_, err = core.OpenDevice(core.DeviceConfiguration{Path: "/nonexistent/card", Backend: "soft"})
	c.Assert(err, qt.ErrorIs, os.ErrNotExist)
}
