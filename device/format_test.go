// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"errors"
	"testing"

	"github.com/devblok/gbm/device"
)

func TestFourCCPacking(t *testing.T) {
	if device.FormatXRGB8888 != 0x34325258 {
		t.Errorf("XRGB8888 = 0x%08x", uint32(device.FormatXRGB8888))
	}
	if device.FourCC('N', 'V', '1', '2') != device.FormatNV12 {
		t.Error("FourCC does not match catalog constant")
	}
}

func TestFormatNames(t *testing.T) {
	for _, f := range device.Formats() {
		parsed, err := device.ParseFormat(f.String())
		if err != nil {
			t.Error(err)
			continue
		}
		if parsed != f {
			t.Errorf("%s parsed as %s", f, parsed)
		}
	}

	if _, err := device.ParseFormat("RGB999"); !errors.Is(err, device.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
	if f, _ := device.ParseFormat("argb8888"); f != device.FormatARGB8888 {
		t.Error("lookup should ignore case")
	}
}

func TestUnknownFormatIsRepresentable(t *testing.T) {
	f := device.Format(0x12345678)
	if f.Known() {
		t.Error("code should not be in the catalog")
	}
	if f.String() != "unknown(0x12345678)" {
		t.Errorf("String() = %s", f)
	}
	if f.Code() != 0x12345678 {
		t.Error("raw code not preserved")
	}
}

func TestLegacyFormats(t *testing.T) {
	if device.FormatLegacyXRGB8888.Canonical() != device.FormatXRGB8888 {
		t.Error("legacy XRGB8888 not mapped")
	}
	if device.FormatLegacyARGB8888.String() != "ARGB8888" {
		t.Errorf("legacy ARGB8888 named %s", device.FormatLegacyARGB8888)
	}
	if device.FormatRGB565.Canonical() != device.FormatRGB565 {
		t.Error("catalog formats are already canonical")
	}
}
