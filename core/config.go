// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Configuration defines the settings shared by the gbm tools
type Configuration struct {
	Device  DeviceConfiguration
	Capture CaptureConfiguration
	Log     LogConfiguration
}

// DeviceConfiguration selects the DRM node and native backend
type DeviceConfiguration struct {
	// Path of the DRM node the device is opened on
	Path string

	// Backend names a registered native backend,
	// empty picks the best available one
	Backend string

	// SurfaceBuffers is the pool size of software surfaces
	SurfaceBuffers int
}

// CaptureConfiguration is used to configure frame capture
type CaptureConfiguration struct {
	Width  uint32
	Height uint32
	Format string

	// FramesPerSecond caps the capture loop
	// To unlimit, set to 0
	FramesPerSecond int

	// Frames is the number of frames captured before stopping
	Frames int
}

// LogConfiguration is used to configure logrus
type LogConfiguration struct {
	Level string
	JSON  bool
}

// DefaultConfiguration holds the values used for unset keys
var DefaultConfiguration = Configuration{
	Device: DeviceConfiguration{
		Path:           "/dev/dri/renderD128",
		SurfaceBuffers: 3,
	},
	Capture: CaptureConfiguration{
		Width:           640,
		Height:          480,
		Format:          "XRGB8888",
		FramesPerSecond: 60,
		Frames:          30,
	},
	Log: LogConfiguration{
		Level: "info",
	},
}

// LoadConfiguration reads the given .env files and the process environment.
// Variables already set in the environment win over the files.
//
// envy loads ./.env from the working directory when the program starts, so
// a .env file there takes part even when no files are given, with the same
// precedence as the process environment.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) > 0 {
		values, err := godotenv.Read(files...)
		if err != nil {
			return Configuration{}, fmt.Errorf("godotenv.Read(): %w", err)
		}
		for key, value := range values {
			if _, err := envy.MustGet(key); err != nil {
				envy.Set(key, value)
			}
		}
	}

	cfg := DefaultConfiguration
	cfg.Device.Path = envy.Get("GBM_DEVICE", cfg.Device.Path)
	cfg.Device.Backend = envy.Get("GBM_BACKEND", cfg.Device.Backend)
	cfg.Capture.Format = envy.Get("GBM_CAPTURE_FORMAT", cfg.Capture.Format)
	cfg.Log.Level = envy.Get("GBM_LOG_LEVEL", cfg.Log.Level)

	var err error
	if cfg.Device.SurfaceBuffers, err = intVar("GBM_SURFACE_BUFFERS", cfg.Device.SurfaceBuffers); err != nil {
		return Configuration{}, err
	}
	if cfg.Capture.FramesPerSecond, err = intVar("GBM_CAPTURE_FPS", cfg.Capture.FramesPerSecond); err != nil {
		return Configuration{}, err
	}
	if cfg.Capture.Frames, err = intVar("GBM_CAPTURE_FRAMES", cfg.Capture.Frames); err != nil {
		return Configuration{}, err
	}
	width, err := intVar("GBM_CAPTURE_WIDTH", int(cfg.Capture.Width))
	if err != nil {
		return Configuration{}, err
	}
	height, err := intVar("GBM_CAPTURE_HEIGHT", int(cfg.Capture.Height))
	if err != nil {
		return Configuration{}, err
	}
	cfg.Capture.Width, cfg.Capture.Height = uint32(width), uint32(height)

	if cfg.Log.JSON, err = boolVar("GBM_LOG_JSON", cfg.Log.JSON); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

func intVar(key string, fallback int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s: invalid value %q", key, raw)
	}
	return v, nil
}

func boolVar(key string, fallback bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid value %q", key, raw)
	}
	return v, nil
}
