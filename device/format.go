// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"fmt"
	"strings"
)

// Format is a pixel format code. Codes are FourCC values, four characters
// packed little endian into 32 bits. Codes outside the catalog are kept as
// they are, so a buffer of a format this package doesn't know about can
// still be described.
type Format uint32

// FourCC packs four characters into a Format.
func FourCC(a, b, c, d byte) Format {
	return Format(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Legacy gbm format enumeration. Accepted as input, never reported back.
const (
	FormatLegacyXRGB8888 Format = 0
	FormatLegacyARGB8888 Format = 1
)

// Format catalog.
const (
	// color index
	FormatC8 = Format(uint32('C') | uint32('8')<<8 | uint32(' ')<<16 | uint32(' ')<<24)

	// 8 bpp RGB
	FormatRGB332 = Format(uint32('R') | uint32('G')<<8 | uint32('B')<<16 | uint32('8')<<24)
	FormatBGR233 = Format(uint32('B') | uint32('G')<<8 | uint32('R')<<16 | uint32('8')<<24)

	// 16 bpp RGB
	FormatXRGB4444 = Format(uint32('X') | uint32('R')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatXBGR4444 = Format(uint32('X') | uint32('B')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatRGBX4444 = Format(uint32('R') | uint32('X')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatBGRX4444 = Format(uint32('B') | uint32('X')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatARGB4444 = Format(uint32('A') | uint32('R')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatABGR4444 = Format(uint32('A') | uint32('B')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatRGBA4444 = Format(uint32('R') | uint32('A')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatBGRA4444 = Format(uint32('B') | uint32('A')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatXRGB1555 = Format(uint32('X') | uint32('R')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatXBGR1555 = Format(uint32('X') | uint32('B')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatRGBX5551 = Format(uint32('R') | uint32('X')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatBGRX5551 = Format(uint32('B') | uint32('X')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatARGB1555 = Format(uint32('A') | uint32('R')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatABGR1555 = Format(uint32('A') | uint32('B')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatRGBA5551 = Format(uint32('R') | uint32('A')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatBGRA5551 = Format(uint32('B') | uint32('A')<<8 | uint32('1')<<16 | uint32('5')<<24)
	FormatRGB565   = Format(uint32('R') | uint32('G')<<8 | uint32('1')<<16 | uint32('6')<<24)
	FormatBGR565   = Format(uint32('B') | uint32('G')<<8 | uint32('1')<<16 | uint32('6')<<24)

	// 24 bpp RGB
	FormatRGB888 = Format(uint32('R') | uint32('G')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatBGR888 = Format(uint32('B') | uint32('G')<<8 | uint32('2')<<16 | uint32('4')<<24)

	// 32 bpp RGB
	FormatXRGB8888    = Format(uint32('X') | uint32('R')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatXBGR8888    = Format(uint32('X') | uint32('B')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatRGBX8888    = Format(uint32('R') | uint32('X')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatBGRX8888    = Format(uint32('B') | uint32('X')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatARGB8888    = Format(uint32('A') | uint32('R')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatABGR8888    = Format(uint32('A') | uint32('B')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatRGBA8888    = Format(uint32('R') | uint32('A')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatBGRA8888    = Format(uint32('B') | uint32('A')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatXRGB2101010 = Format(uint32('X') | uint32('R')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatXBGR2101010 = Format(uint32('X') | uint32('B')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatRGBX1010102 = Format(uint32('R') | uint32('X')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatBGRX1010102 = Format(uint32('B') | uint32('X')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatARGB2101010 = Format(uint32('A') | uint32('R')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatABGR2101010 = Format(uint32('A') | uint32('B')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatRGBA1010102 = Format(uint32('R') | uint32('A')<<8 | uint32('3')<<16 | uint32('0')<<24)
	FormatBGRA1010102 = Format(uint32('B') | uint32('A')<<8 | uint32('3')<<16 | uint32('0')<<24)

	// packed YCbCr
	FormatYUYV = Format(uint32('Y') | uint32('U')<<8 | uint32('Y')<<16 | uint32('V')<<24)
	FormatYVYU = Format(uint32('Y') | uint32('V')<<8 | uint32('Y')<<16 | uint32('U')<<24)
	FormatUYVY = Format(uint32('U') | uint32('Y')<<8 | uint32('V')<<16 | uint32('Y')<<24)
	FormatVYUY = Format(uint32('V') | uint32('Y')<<8 | uint32('U')<<16 | uint32('Y')<<24)
	FormatAYUV = Format(uint32('A') | uint32('Y')<<8 | uint32('U')<<16 | uint32('V')<<24)

	// 2 plane YCbCr
	FormatNV12 = Format(uint32('N') | uint32('V')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatNV21 = Format(uint32('N') | uint32('V')<<8 | uint32('2')<<16 | uint32('1')<<24)
	FormatNV16 = Format(uint32('N') | uint32('V')<<8 | uint32('1')<<16 | uint32('6')<<24)
	FormatNV61 = Format(uint32('N') | uint32('V')<<8 | uint32('6')<<16 | uint32('1')<<24)

	// 3 plane YCbCr
	FormatYUV410 = Format(uint32('Y') | uint32('U')<<8 | uint32('V')<<16 | uint32('9')<<24)
	FormatYVU410 = Format(uint32('Y') | uint32('V')<<8 | uint32('U')<<16 | uint32('9')<<24)
	FormatYUV411 = Format(uint32('Y') | uint32('U')<<8 | uint32('1')<<16 | uint32('1')<<24)
	FormatYVU411 = Format(uint32('Y') | uint32('V')<<8 | uint32('1')<<16 | uint32('1')<<24)
	FormatYUV420 = Format(uint32('Y') | uint32('U')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatYVU420 = Format(uint32('Y') | uint32('V')<<8 | uint32('1')<<16 | uint32('2')<<24)
	FormatYUV422 = Format(uint32('Y') | uint32('U')<<8 | uint32('1')<<16 | uint32('6')<<24)
	FormatYVU422 = Format(uint32('Y') | uint32('V')<<8 | uint32('1')<<16 | uint32('6')<<24)
	FormatYUV444 = Format(uint32('Y') | uint32('U')<<8 | uint32('2')<<16 | uint32('4')<<24)
	FormatYVU444 = Format(uint32('Y') | uint32('V')<<8 | uint32('2')<<16 | uint32('4')<<24)
)

var formats = []struct {
	format Format
	name   string
}{
	{FormatC8, "C8"},
	{FormatRGB332, "RGB332"},
	{FormatBGR233, "BGR233"},
	{FormatXRGB4444, "XRGB4444"},
	{FormatXBGR4444, "XBGR4444"},
	{FormatRGBX4444, "RGBX4444"},
	{FormatBGRX4444, "BGRX4444"},
	{FormatARGB4444, "ARGB4444"},
	{FormatABGR4444, "ABGR4444"},
	{FormatRGBA4444, "RGBA4444"},
	{FormatBGRA4444, "BGRA4444"},
	{FormatXRGB1555, "XRGB1555"},
	{FormatXBGR1555, "XBGR1555"},
	{FormatRGBX5551, "RGBX5551"},
	{FormatBGRX5551, "BGRX5551"},
	{FormatARGB1555, "ARGB1555"},
	{FormatABGR1555, "ABGR1555"},
	{FormatRGBA5551, "RGBA5551"},
	{FormatBGRA5551, "BGRA5551"},
	{FormatRGB565, "RGB565"},
	{FormatBGR565, "BGR565"},
	{FormatRGB888, "RGB888"},
	{FormatBGR888, "BGR888"},
	{FormatXRGB8888, "XRGB8888"},
	{FormatXBGR8888, "XBGR8888"},
	{FormatRGBX8888, "RGBX8888"},
	{FormatBGRX8888, "BGRX8888"},
	{FormatARGB8888, "ARGB8888"},
	{FormatABGR8888, "ABGR8888"},
	{FormatRGBA8888, "RGBA8888"},
	{FormatBGRA8888, "BGRA8888"},
	{FormatXRGB2101010, "XRGB2101010"},
	{FormatXBGR2101010, "XBGR2101010"},
	{FormatRGBX1010102, "RGBX1010102"},
	{FormatBGRX1010102, "BGRX1010102"},
	{FormatARGB2101010, "ARGB2101010"},
	{FormatABGR2101010, "ABGR2101010"},
	{FormatRGBA1010102, "RGBA1010102"},
	{FormatBGRA1010102, "BGRA1010102"},
	{FormatYUYV, "YUYV"},
	{FormatYVYU, "YVYU"},
	{FormatUYVY, "UYVY"},
	{FormatVYUY, "VYUY"},
	{FormatAYUV, "AYUV"},
	{FormatNV12, "NV12"},
	{FormatNV21, "NV21"},
	{FormatNV16, "NV16"},
	{FormatNV61, "NV61"},
	{FormatYUV410, "YUV410"},
	{FormatYVU410, "YVU410"},
	{FormatYUV411, "YUV411"},
	{FormatYVU411, "YVU411"},
	{FormatYUV420, "YUV420"},
	{FormatYVU420, "YVU420"},
	{FormatYUV422, "YUV422"},
	{FormatYVU422, "YVU422"},
	{FormatYUV444, "YUV444"},
	{FormatYVU444, "YVU444"},
}

var formatNames = func() map[Format]string {
	m := make(map[Format]string, len(formats))
	for _, f := range formats {
		m[f.format] = f.name
	}
	return m
}()

// Formats returns the catalog in declaration order.
func Formats() []Format {
	list := make([]Format, len(formats))
	for idx, f := range formats {
		list[idx] = f.format
	}
	return list
}

// ParseFormat looks a format up by its catalog name, case insensitive.
func ParseFormat(name string) (Format, error) {
	for _, f := range formats {
		if strings.EqualFold(f.name, name) {
			return f.format, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Canonical maps the legacy codes to their FourCC equivalent.
func (f Format) Canonical() Format {
	switch f {
	case FormatLegacyXRGB8888:
		return FormatXRGB8888
	case FormatLegacyARGB8888:
		return FormatARGB8888
	}
	return f
}

// Known reports whether f, after canonicalisation, is in the catalog.
func (f Format) Known() bool {
	_, ok := formatNames[f.Canonical()]
	return ok
}

// Code returns the raw numeric code.
func (f Format) Code() uint32 {
	return uint32(f)
}

func (f Format) String() string {
	if name, ok := formatNames[f.Canonical()]; ok {
		return name
	}
	return fmt.Sprintf("unknown(0x%08x)", uint32(f))
}
