// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:build linux && cgo

package libgbm

import (
	"os"
	"testing"

	"github.com/devblok/gbm/native"
)

const renderNode = "/dev/dri/renderD128"

func openNode(t *testing.T) (Backend, native.DevicePtr) {
	f, err := os.OpenFile(renderNode, os.O_RDWR, 0)
	if err != nil {
		t.Skipf("no render node: %s", err)
	}
	t.Cleanup(func() { f.Close() })

	var b Backend
	dev := b.CreateDevice(int(f.Fd()))
	if dev == 0 {
		t.Skip("gbm_create_device failed")
	}
	t.Cleanup(func() { b.DestroyDevice(dev) })
	return b, dev
}

func TestDeviceBasics(t *testing.T) {
	b, dev := openNode(t)

	if len(b.DeviceBackendName(dev)) == 0 {
		t.Error("empty backend name")
	}
	xrgb := uint32('X') | uint32('R')<<8 | uint32('2')<<16 | uint32('4')<<24
	if !b.IsFormatSupported(dev, xrgb, 1<<2) {
		t.Error("XRGB8888 rendering should be supported")
	}
}

func TestUserDataCallback(t *testing.T) {
	b, dev := openNode(t)

	xrgb := uint32('X') | uint32('R')<<8 | uint32('2')<<16 | uint32('4')<<24
	bo := b.CreateBo(dev, 64, 64, xrgb, 1<<2)
	if bo == 0 {
		t.Skip("gbm_bo_create failed")
	}

	calls := 0
	b.BoSetUserData(bo, 99, func(p native.BoPtr, data uintptr) {
		if p != bo || data != 99 {
			t.Errorf("callback got %x %d", p, data)
		}
		calls++
	})
	if b.BoUserData(bo) != 99 {
		t.Error("user data not stored")
	}
	b.DestroyBo(bo)

	if calls != 1 {
		t.Errorf("callback ran %d times", calls)
	}
}
