// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"errors"
	"os"
	"testing"

	"github.com/devblok/gbm/device"
	"github.com/devblok/gbm/native/soft"
)

func openDevice(t testing.TB, opts ...soft.Option) (*device.Device, *soft.Backend) {
	t.Helper()
	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })

	backend := soft.New(opts...)
	dev, err := device.CreateWithBackend(backend, int(f.Fd()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := dev.Destroy(); err != nil {
			t.Error(err)
		}
	})
	return dev, backend
}

func TestCreateFailsOnBadDescriptor(t *testing.T) {
	_, err := device.CreateWithBackend(soft.New(), -1)
	if !errors.Is(err, device.ErrDeviceCreation) {
		t.Errorf("expected ErrDeviceCreation, got %v", err)
	}
}

func TestDeviceQueries(t *testing.T) {
	dev, _ := openDevice(t)

	if dev.Fd() < 0 {
		t.Error("negative descriptor")
	}
	name, err := dev.BackendName()
	if err != nil {
		t.Error(err)
	}
	if name != soft.Name {
		t.Errorf("backend name %q", name)
	}
}

func TestBackendNameNotUTF8(t *testing.T) {
	dev, _ := openDevice(t, soft.WithBackendName([]byte{0xff, 0xfe}))
	if _, err := dev.BackendName(); !errors.Is(err, device.ErrBackendName) {
		t.Errorf("expected ErrBackendName, got %v", err)
	}
}

func TestIsFormatSupported(t *testing.T) {
	dev, _ := openDevice(t)

	if !dev.IsFormatSupported(device.FormatXRGB8888, device.NewFlags()) {
		t.Error("XRGB8888 without usage should be supported")
	}
	if dev.IsFormatSupported(device.FormatNV12, device.NewFlags().Cursor(true)) {
		t.Error("NV12 cursor should not be supported")
	}
	if dev.IsFormatSupported(device.Format(0xdeadbeef), 0) {
		t.Error("unknown code should not be supported")
	}
}

func TestCreateBoRoundTrip(t *testing.T) {
	dev, _ := openDevice(t)

	cases := []struct {
		width, height uint32
		format        device.Format
		usage         device.Flags
	}{
		{64, 64, device.FormatARGB8888, device.NewFlags().Cursor(true).Write(true)},
		{1920, 1080, device.FormatXRGB8888, device.NewFlags().Scanout(true).Rendering(true)},
		{13, 7, device.FormatRGB565, device.NewFlags().Linear(true)},
		{320, 240, device.FormatNV12, device.NewFlags().Rendering(true)},
	}
	for _, c := range cases {
		if !dev.IsFormatSupported(c.format, c.usage) {
			t.Errorf("%s %s unsupported", c.format, c.usage)
			continue
		}
		bo, err := dev.CreateBo(c.width, c.height, c.format, c.usage)
		if err != nil {
			t.Error(err)
			continue
		}
		if bo.Width() != c.width || bo.Height() != c.height || bo.Format() != c.format {
			t.Errorf("got %dx%d %s, want %dx%d %s",
				bo.Width(), bo.Height(), bo.Format(), c.width, c.height, c.format)
		}
		if bo.Device() != dev {
			t.Error("buffer reports a different device")
		}
		if err := bo.Destroy(); err != nil {
			t.Error(err)
		}
	}
}

func TestLegacyFormatReportsFourCC(t *testing.T) {
	dev, _ := openDevice(t)

	bo, err := dev.CreateBo(8, 8, device.FormatLegacyARGB8888, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer bo.Destroy()

	if bo.Format() != device.FormatARGB8888 {
		t.Errorf("format %s", bo.Format())
	}
}

func TestCreateBoFailure(t *testing.T) {
	dev, _ := openDevice(t)

	if _, err := dev.CreateBo(0, 0, device.FormatXRGB8888, 0); !errors.Is(err, device.ErrBoCreation) {
		t.Errorf("expected ErrBoCreation, got %v", err)
	}
	if _, err := dev.CreateSurface(16, 16, device.FormatYUYV, device.FlagScanout); !errors.Is(err, device.ErrSurfaceCreation) {
		t.Errorf("expected ErrSurfaceCreation, got %v", err)
	}
}

func TestCreateBoOversizeWidth(t *testing.T) {
	dev, _ := openDevice(t)

	// width * 4 bytes does not fit a 32 bit stride
	for _, usage := range []device.Flags{device.FlagLinear, 0} {
		bo, err := dev.CreateBo(0x40000001, 1, device.FormatXRGB8888, usage)
		if !errors.Is(err, device.ErrBoCreation) {
			t.Errorf("usage %s: expected ErrBoCreation, got %v", usage, err)
		}
		if bo != nil {
			t.Errorf("usage %s: got buffer with stride %d", usage, bo.Stride())
			bo.Destroy()
		}
	}
}

func TestDestroyWithLiveChildren(t *testing.T) {
	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	backend := soft.New()
	dev, err := device.CreateWithBackend(backend, int(f.Fd()))
	if err != nil {
		t.Fatal(err)
	}
	bo, err := dev.CreateBo(4, 4, device.FormatXRGB8888, 0)
	if err != nil {
		t.Fatal(err)
	}
	srf, err := dev.CreateSurface(4, 4, device.FormatXRGB8888, device.FlagRendering)
	if err != nil {
		t.Fatal(err)
	}

	if err := dev.Destroy(); !errors.Is(err, device.ErrDeviceInUse) {
		t.Errorf("expected ErrDeviceInUse, got %v", err)
	}
	if dev.Fd() < 0 {
		t.Error("device released despite live children")
	}

	bo.Destroy()
	srf.Destroy()
	if err := dev.Destroy(); err != nil {
		t.Error(err)
	}
	if err := dev.Destroy(); err != nil {
		t.Error("second Destroy should be a no-op")
	}

	if devices, bos, surfaces := backend.Live(); devices+bos+surfaces != 0 {
		t.Errorf("leaked %d devices, %d buffers, %d surfaces", devices, bos, surfaces)
	}
	if _, err := dev.CreateBo(4, 4, device.FormatXRGB8888, 0); !errors.Is(err, device.ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
}

func TestInfo(t *testing.T) {
	dev, _ := openDevice(t)

	info, err := dev.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Backend != soft.Name {
		t.Errorf("backend %q", info.Backend)
	}
	if len(info.Formats) != len(device.Formats()) {
		t.Errorf("%d formats listed", len(info.Formats))
	}
	for _, f := range info.Formats {
		if f.Format == device.FormatXRGB8888 && len(f.Usage) == 0 {
			t.Error("XRGB8888 reported without usages")
		}
	}
}
