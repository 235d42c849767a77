// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/gbm/device"
	"github.com/devblok/gbm/native"
	"github.com/devblok/gbm/native/soft"
)

// Session is an open DRM node together with the device created on it.
// The node stays open until Close.
type Session struct {
	Device *device.Device
	node   *os.File
}

// OpenDevice opens the configured node and creates a device with the
// configured backend, or the best available one
func OpenDevice(cfg DeviceConfiguration) (*Session, error) {
	backend, err := selectBackend(cfg)
	if err != nil {
		return nil, err
	}

	node, err := os.OpenFile(cfg.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("os.OpenFile(%s): %w", cfg.Path, err)
	}

	dev, err := device.CreateWithBackend(backend, int(node.Fd()))
	if err != nil {
		node.Close()
		return nil, err
	}
	log.WithFields(log.Fields{
		"path":    cfg.Path,
		"backend": backend.Name(),
	}).Info("device opened")

	return &Session{
		Device: dev,
		node:   node,
	}, nil
}

func selectBackend(cfg DeviceConfiguration) (native.Backend, error) {
	switch cfg.Backend {
	case "":
		return native.Default()
	case soft.Name:
		if cfg.SurfaceBuffers > 0 {
			return soft.New(soft.WithPoolSize(cfg.SurfaceBuffers)), nil
		}
		return soft.New(), nil
	default:
		return native.Open(cfg.Backend)
	}
}

// Close destroys the device and closes the node
func (s *Session) Close() error {
	if err := s.Device.Destroy(); err != nil {
		return err
	}
	return s.node.Close()
}
