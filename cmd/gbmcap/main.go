// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/gbm/core"
	"github.com/devblok/gbm/device"
	_ "github.com/devblok/gbm/native/libgbm"
	_ "github.com/devblok/gbm/native/soft"
	"github.com/devblok/gbm/utility/kar"
)

var (
	envFile   = flag.String("env", "", "Read configuration from the given .env file")
	dstFile   = flag.String("f", "capture.kar", "Destination archive")
	imageFile = flag.String("image", "", "Draw the given png, jpeg or bmp instead of a test card")
	bmpFile   = flag.String("bmp", "", "Also export the last frame as a bitmap")
	useRing   = flag.Bool("ring", false, "Draw into standalone buffers instead of a surface")
	author    = flag.String("author", "gbmcap", "Set the author of the archive")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		return err
	}
	if err := core.ConfigureLogging(cfg.Log); err != nil {
		return err
	}

	format, err := device.ParseFormat(cfg.Capture.Format)
	if err != nil {
		return err
	}
	if !core.CanPack(format) {
		return errors.New("capture format must be a 32bpp RGB format")
	}

	var src image.Image
	if *imageFile != "" {
		if src, err = decodeImage(*imageFile); err != nil {
			return err
		}
	}

	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	session, err := core.OpenDevice(cfg.Device)
	if err != nil {
		return err
	}
	defer session.Close()

	source, err := openSource(session.Device, cfg, format)
	if err != nil {
		return err
	}
	defer source.Destroy()

	builder, err := kar.NewBuilder(kar.Header{
		Author:      *author,
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	capture := &capturer{
		source:  source,
		image:   src,
		builder: builder,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	tm := core.NewTime(cfg.Capture)
	defer tm.Stop()

CaptureLoop:
	for tm.Frames() < cfg.Capture.Frames {
		select {
		case <-ctx.Done():
			log.Info("capture interrupted")
			break CaptureLoop
		case <-tm.FpsTicker().C:
			if err := capture.captureFrame(tm.Frames()); err != nil {
				return err
			}
			tm.Frame()
		}
	}
	log.WithFields(log.Fields{
		"frames":  tm.Frames(),
		"buffers": capture.buffers,
		"fps":     tm.Rate(),
	}).Info("capture finished")

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	written, err := builder.WriteTo(dst)
	if err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":  *dstFile,
		"bytes": written,
	}).Info("archive written")

	if *bmpFile != "" {
		return capture.exportBMP(*bmpFile)
	}
	return nil
}

func openSource(dev *device.Device, cfg core.Configuration, format device.Format) (frameSource, error) {
	width, height := cfg.Capture.Width, cfg.Capture.Height
	if *useRing {
		return newRingSource(dev, cfg.Device.SurfaceBuffers, width, height, format)
	}
	usage := device.NewFlags().Rendering(true).Scanout(true)
	srf, err := dev.CreateSurface(width, height, format, usage)
	if err != nil {
		return nil, err
	}
	if srf.NeedsLockFrontBuffer() {
		log.Debug("surface requires front buffer locking")
	}
	return &surfaceSource{surface: srf}, nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
