// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the pieces shared by the gbm tools:
// configuration, logging, frame pacing and buffer plumbing.
package core

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Destroyer describes anything that owns native resources.
// Devices, buffer objects and surfaces all satisfy it.
type Destroyer interface {
	// Destroy frees the native resource, calling it
	// more than once is not an error
	Destroy() error
}

// DestroyAll destroys the given objects in order, children first.
// All objects are attempted, the errors are joined.
func DestroyAll(objs ...Destroyer) error {
	var errs []error
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if err := obj.Destroy(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConfigureLogging applies the log configuration to the standard logger
func ConfigureLogging(cfg LogConfiguration) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("log.ParseLevel(): %w", err)
	}
	log.SetLevel(level)

	if cfg.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	return nil
}
