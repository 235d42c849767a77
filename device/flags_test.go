// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"testing"

	"github.com/devblok/gbm/device"
)

func TestFlagsBuilder(t *testing.T) {
	flags := device.NewFlags()
	if flags != 0 || flags.String() != "none" {
		t.Errorf("new flags = %s", flags)
	}

	flags = flags.Scanout(true).Rendering(true).Linear(true)
	if flags != device.FlagScanout|device.FlagRendering|device.FlagLinear {
		t.Errorf("flags = %s", flags)
	}
	if flags.String() != "scanout|rendering|linear" {
		t.Errorf("String() = %s", flags)
	}

	flags = flags.Linear(false).Cursor(true).Write(true).Scanout(false)
	if !flags.Has(device.FlagCursor|device.FlagWrite) || flags.Has(device.FlagLinear) || flags.Has(device.FlagScanout) {
		t.Errorf("flags = %s", flags)
	}
}

func TestFlagBitsMatchNative(t *testing.T) {
	bits := []device.Flags{
		device.FlagScanout,
		device.FlagCursor,
		device.FlagRendering,
		device.FlagWrite,
		device.FlagLinear,
	}
	for idx, flag := range bits {
		if uint32(flag) != 1<<uint(idx) {
			t.Errorf("%s = %d", flag, flag)
		}
	}
}
