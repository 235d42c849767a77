// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package soft

import "math"

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// usage bits, numbered as in gbm.h
const (
	useScanout   = 1 << 0
	useCursor    = 1 << 1
	useRendering = 1 << 2
	useWrite     = 1 << 3
	useLinear    = 1 << 4
)

const (
	legacyXRGB8888 = 0
	legacyARGB8888 = 1
)

// layout describes how much memory one buffer of a format needs.
// cpp is bytes per pixel of the first plane, planes grow the allocation by
// num/den of the first plane.
type layout struct {
	cpp      uint32
	num, den uint32
	yuv      bool
}

var (
	formatXRGB8888 = fourcc('X', 'R', '2', '4')
	formatARGB8888 = fourcc('A', 'R', '2', '4')
)

var layouts = map[uint32]layout{
	fourcc('C', '8', ' ', ' '): {cpp: 1, num: 1, den: 1},
	fourcc('R', '8', ' ', ' '): {cpp: 1, num: 1, den: 1},
	fourcc('R', 'G', '1', '6'): {cpp: 2, num: 1, den: 1},
	fourcc('B', 'G', '1', '6'): {cpp: 2, num: 1, den: 1},
	fourcc('X', 'R', '1', '5'): {cpp: 2, num: 1, den: 1},
	fourcc('A', 'R', '1', '5'): {cpp: 2, num: 1, den: 1},
	fourcc('R', 'G', '2', '4'): {cpp: 3, num: 1, den: 1},
	fourcc('B', 'G', '2', '4'): {cpp: 3, num: 1, den: 1},
	fourcc('X', 'R', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('X', 'B', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('A', 'R', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('A', 'B', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('R', 'X', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('R', 'A', '2', '4'): {cpp: 4, num: 1, den: 1},
	fourcc('X', 'R', '3', '0'): {cpp: 4, num: 1, den: 1},
	fourcc('A', 'R', '3', '0'): {cpp: 4, num: 1, den: 1},
	fourcc('Y', 'U', 'Y', 'V'): {cpp: 2, num: 1, den: 1, yuv: true},
	fourcc('U', 'Y', 'V', 'Y'): {cpp: 2, num: 1, den: 1, yuv: true},
	fourcc('N', 'V', '1', '2'): {cpp: 1, num: 3, den: 2, yuv: true},
	fourcc('N', 'V', '2', '1'): {cpp: 1, num: 3, den: 2, yuv: true},
	fourcc('Y', 'U', '1', '2'): {cpp: 1, num: 3, den: 2, yuv: true},
	fourcc('Y', 'V', '1', '2'): {cpp: 1, num: 3, den: 2, yuv: true},
}

func canonical(format uint32) uint32 {
	switch format {
	case legacyXRGB8888:
		return formatXRGB8888
	case legacyARGB8888:
		return formatARGB8888
	}
	return format
}

// supported applies the usage rules of the software backend: YUV buffers
// can't be scanned out or used as cursors, cursors must be 32 bit RGB.
func supported(format, usage uint32) (layout, bool) {
	l, ok := layouts[canonical(format)]
	if !ok {
		return layout{}, false
	}
	if l.yuv && usage&(useScanout|useCursor) != 0 {
		return layout{}, false
	}
	if usage&useCursor != 0 && l.cpp != 4 {
		return layout{}, false
	}
	return l, true
}

const strideAlignment = 64

func align(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

// minStride is the tightly packed row size of width pixels
func (l layout) minStride(width uint32) uint64 {
	return uint64(width) * uint64(l.cpp)
}

// size returns stride and total allocation size for the given geometry.
// Linear buffers are packed tightly, everything else is row aligned.
// Geometry whose stride or size does not fit is rejected.
func (l layout) size(width, height, usage uint32) (uint32, int, bool) {
	stride := l.minStride(width)
	if usage&useLinear == 0 {
		stride = align(stride, strideAlignment)
	}
	if stride > math.MaxUint32 {
		return 0, 0, false
	}
	rows := (uint64(height)*uint64(l.num) + uint64(l.den) - 1) / uint64(l.den)
	if rows != 0 && stride > math.MaxInt/rows {
		return 0, 0, false
	}
	return uint32(stride), int(stride * rows), true
}
