// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"
	"golang.org/x/sys/unix"

	"github.com/devblok/gbm/core"
	"github.com/devblok/gbm/device"
	"github.com/devblok/gbm/utility/kar"
)

// frameSource hands out buffers to draw a frame into
type frameSource interface {
	acquire() (*device.Bo, error)
	release(*device.Bo) error
	Destroy() error
}

// surfaceSource cycles through the buffers of a surface
type surfaceSource struct {
	surface *device.Surface
}

func (s *surfaceSource) acquire() (*device.Bo, error) {
	if !s.surface.HasFreeBuffers() {
		return nil, device.ErrNoFrontBuffer
	}
	return s.surface.LockFrontBuffer()
}

func (s *surfaceSource) release(bo *device.Bo) error {
	return s.surface.ReleaseBuffer(bo)
}

func (s *surfaceSource) Destroy() error {
	return s.surface.Destroy()
}

// ringSource cycles through standalone buffer objects, for backends
// that only hand out surface buffers after a client rendered into them
type ringSource struct {
	bos  []*device.Bo
	next int
}

func newRingSource(dev *device.Device, size int, width, height uint32, format device.Format) (*ringSource, error) {
	ring := &ringSource{}
	if size < 1 {
		size = 1
	}
	usage := device.NewFlags().Write(true).Linear(true)
	for i := 0; i < size; i++ {
		bo, err := dev.CreateBo(width, height, format, usage)
		if err != nil {
			ring.Destroy()
			return nil, err
		}
		ring.bos = append(ring.bos, bo)
	}
	return ring, nil
}

func (r *ringSource) acquire() (*device.Bo, error) {
	bo := r.bos[r.next%len(r.bos)]
	r.next++
	return bo, nil
}

func (r *ringSource) release(*device.Bo) error {
	return nil
}

func (r *ringSource) Destroy() error {
	return core.DestroyAll(destroyers(r.bos)...)
}

func destroyers(bos []*device.Bo) []core.Destroyer {
	out := make([]core.Destroyer, 0, len(bos))
	for _, bo := range bos {
		out = append(out, bo)
	}
	return out
}

// bufferStats rides along a buffer as user data for its whole native
// lifetime
type bufferStats struct {
	id   int
	uses int
}

func (s bufferStats) Close() error {
	log.WithFields(log.Fields{
		"buffer": s.id,
		"uses":   s.uses,
	}).Debug("buffer retired")
	return nil
}

// capturer draws frames into buffers, reads them back through an
// exported descriptor and collects them into an archive
type capturer struct {
	source  frameSource
	image   image.Image
	builder *kar.Builder

	buffers int
	last    []byte
	geom    geometry
}

type geometry struct {
	width, height, stride uint32
	format                device.Format
}

func (c *capturer) captureFrame(n int) error {
	bo, err := c.source.acquire()
	if err != nil {
		return err
	}
	defer func() {
		if err := c.source.release(bo); err != nil {
			log.WithError(err).Warn("release failed")
		}
	}()

	if !bo.HasUserData() {
		if err := bo.SetUserData(bufferStats{id: c.buffers}); err != nil {
			return err
		}
		c.buffers++
	}
	var id int
	device.UpdateUserData(bo, func(s *bufferStats) {
		s.uses++
		id = s.id
	})

	geom := geometry{
		width:  bo.Width(),
		height: bo.Height(),
		stride: bo.Stride(),
		format: bo.Format(),
	}
	src := c.image
	if src == nil {
		src = testCard(int(geom.width), int(geom.height), n)
	}
	pixels, err := core.PackPixels(src, geom.format, geom.width, geom.height, geom.stride)
	if err != nil {
		return err
	}
	if _, err := bo.Write(pixels); err != nil {
		return err
	}

	fd, err := bo.Fd()
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	mem, unmap, err := core.MapBuffer(fd, len(pixels))
	if err != nil {
		return err
	}
	defer unmap()

	if err := c.builder.Add(frameName(n), bytes.NewReader(mem), map[string]string{
		"width":  strconv.FormatUint(uint64(geom.width), 10),
		"height": strconv.FormatUint(uint64(geom.height), 10),
		"stride": strconv.FormatUint(uint64(geom.stride), 10),
		"format": geom.format.String(),
		"buffer": strconv.Itoa(id),
	}); err != nil {
		return err
	}
	c.last = append(c.last[:0], mem...)
	c.geom = geom
	return nil
}

func frameName(n int) string {
	return fmt.Sprintf("frame-%04d", n)
}

// exportBMP writes the last captured frame as a bitmap
func (c *capturer) exportBMP(path string) error {
	if c.last == nil {
		return fmt.Errorf("no frame captured")
	}
	img, err := core.UnpackPixels(c.last, c.geom.format, c.geom.width, c.geom.height, c.geom.stride)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// testCard draws colour bars shifted by frame
func testCard(width, height, frame int) image.Image {
	bars := []color.RGBA{
		{0xff, 0xff, 0xff, 0xff},
		{0xff, 0xff, 0x00, 0xff},
		{0x00, 0xff, 0xff, 0xff},
		{0x00, 0xff, 0x00, 0xff},
		{0xff, 0x00, 0xff, 0xff},
		{0xff, 0x00, 0x00, 0xff},
		{0x00, 0x00, 0xff, 0xff},
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		bar := bars[((x+frame)*len(bars)/max(width, 1))%len(bars)]
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, bar)
		}
	}
	return img
}
