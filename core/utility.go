// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sys/unix"

	"github.com/devblok/gbm/device"
)

// channels gives the byte offset of each component inside a 32bpp pixel
type channels struct {
	r, g, b, a int
	opaque     bool
}

var packedOrders = map[device.Format]channels{
	device.FormatXRGB8888: {r: 2, g: 1, b: 0, a: 3, opaque: true},
	device.FormatARGB8888: {r: 2, g: 1, b: 0, a: 3},
	device.FormatXBGR8888: {r: 0, g: 1, b: 2, a: 3, opaque: true},
	device.FormatABGR8888: {r: 0, g: 1, b: 2, a: 3},
	device.FormatRGBX8888: {r: 3, g: 2, b: 1, a: 0, opaque: true},
	device.FormatRGBA8888: {r: 3, g: 2, b: 1, a: 0},
	device.FormatBGRX8888: {r: 1, g: 2, b: 3, a: 0, opaque: true},
	device.FormatBGRA8888: {r: 1, g: 2, b: 3, a: 0},
}

// CanPack reports whether PackPixels can produce the format
func CanPack(format device.Format) bool {
	_, ok := packedOrders[format.Canonical()]
	return ok
}

// PackPixels transforms a given image into the pixel layout of a buffer
// object by drawing it onto a canvas of the buffer's size. Images of a
// different size are scaled. Rows are padded to stride.
func PackPixels(img image.Image, format device.Format, width, height, stride uint32) ([]byte, error) {
	order, ok := packedOrders[format.Canonical()]
	if !ok {
		return nil, fmt.Errorf("PackPixels(%s): %w", format, device.ErrUnknownFormat)
	}
	if stride < width*4 {
		return nil, fmt.Errorf("PackPixels(): stride %d too small for width %d", stride, width)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	if img.Bounds().Size() == canvas.Bounds().Size() {
		xdraw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	}

	out := make([]byte, int(stride)*int(height))
	for y := 0; y < int(height); y++ {
		row := canvas.Pix[y*canvas.Stride : y*canvas.Stride+int(width)*4]
		dst := out[y*int(stride):]
		for x := 0; x < int(width); x++ {
			p := row[x*4 : x*4+4]
			d := dst[x*4 : x*4+4]
			d[order.r], d[order.g], d[order.b] = p[0], p[1], p[2]
			if order.opaque {
				d[order.a] = 0xff
			} else {
				d[order.a] = p[3]
			}
		}
	}
	return out, nil
}

// UnpackPixels is the inverse of PackPixels, reading a mapped buffer back
// into an image
func UnpackPixels(data []byte, format device.Format, width, height, stride uint32) (*image.RGBA, error) {
	order, ok := packedOrders[format.Canonical()]
	if !ok {
		return nil, fmt.Errorf("UnpackPixels(%s): %w", format, device.ErrUnknownFormat)
	}
	if stride < width*4 || len(data) < int(stride)*int(height) {
		return nil, fmt.Errorf("UnpackPixels(): %d bytes do not hold %dx%d at stride %d", len(data), width, height, stride)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for y := 0; y < int(height); y++ {
		src := data[y*int(stride):]
		row := img.Pix[y*img.Stride:]
		for x := 0; x < int(width); x++ {
			s := src[x*4 : x*4+4]
			p := row[x*4 : x*4+4]
			p[0], p[1], p[2] = s[order.r], s[order.g], s[order.b]
			if order.opaque {
				p[3] = 0xff
			} else {
				p[3] = s[order.a]
			}
		}
	}
	return img, nil
}

// MapBuffer maps size bytes of an exported buffer read-only.
// The returned function unmaps it.
func MapBuffer(fd int, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("MapBuffer(): invalid size %d", size)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("unix.Mmap(): %w", err)
	}
	return mem, func() error { return unix.Munmap(mem) }, nil
}
