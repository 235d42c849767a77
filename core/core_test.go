// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	log "github.com/sirupsen/logrus"

	"github.com/devblok/gbm/core"
	"github.com/devblok/gbm/device"
)

type destroyer struct {
	name  string
	order *[]string
	err   error
}

func (d destroyer) Destroy() error {
	*d.order = append(*d.order, d.name)
	return d.err
}

func TestDestroyAll(t *testing.T) {
	c := qt.New(t)
	var order []string
	errBusy := errors.New("busy")

	err := core.DestroyAll(
		destroyer{name: "bo", order: &order},
		nil,
		destroyer{name: "surface", order: &order, err: errBusy},
		destroyer{name: "device", order: &order},
	)
	c.Assert(err, qt.ErrorIs, errBusy)
	c.Assert(order, qt.DeepEquals, []string{"bo", "surface", "device"})
	c.Assert(core.DestroyAll(), qt.IsNil)
}

func TestDestroyAllTypedNil(t *testing.T) {
	c := qt.New(t)
	var bo *device.Bo
	var srf *device.Surface
	c.Assert(core.DestroyAll(bo, srf), qt.IsNil)
}

func TestConfigureLogging(t *testing.T) {
	c := qt.New(t)
	level := log.GetLevel()
	c.Cleanup(func() {
		log.SetLevel(level)
		log.SetFormatter(&log.TextFormatter{})
	})

	c.Assert(core.ConfigureLogging(core.LogConfiguration{Level: "debug", JSON: true}), qt.IsNil)
	c.Assert(log.GetLevel(), qt.Equals, log.DebugLevel)
	_, ok := log.StandardLogger().Formatter.(*log.JSONFormatter)
	c.Assert(ok, qt.IsTrue)

	c.Assert(core.ConfigureLogging(core.LogConfiguration{Level: "loud"}), qt.IsNotNil)
}

func TestTime(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.CaptureConfiguration{FramesPerSecond: 50})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 50)
	c.Assert(tm.Interval(), qt.Equals, 20*time.Millisecond)

	<-tm.FpsTicker().C
	tm.Frame()
	tm.Frame()
	c.Assert(tm.Frames(), qt.Equals, 2)
	c.Assert(tm.Rate() > 0, qt.IsTrue)

	unlimited := core.NewTime(core.CaptureConfiguration{})
	defer unlimited.Stop()
	c.Assert(unlimited.Interval(), qt.Equals, time.Nanosecond)
}
