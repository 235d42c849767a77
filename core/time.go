// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg CaptureConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	return &Time{
		fps:       cfg.FramesPerSecond,
		interval:  interval,
		fpsTicker: time.NewTicker(interval),
		started:   time.Now(),
	}
}

// Time contains the frame pacing of the capture loop
type Time struct {
	fps       int
	interval  time.Duration
	fpsTicker *time.Ticker

	started time.Time
	frames  int
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// Interval is the time between two frames
func (t *Time) Interval() time.Duration {
	return t.interval
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// Frame records a finished frame
func (t *Time) Frame() {
	t.frames++
}

// Frames returns the number of frames recorded so far
func (t *Time) Frames() int {
	return t.frames
}

// Rate is the measured frames per second since creation
func (t *Time) Rate() float64 {
	elapsed := time.Since(t.started).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.frames) / elapsed
}

// Stop stops the ticker
func (t *Time) Stop() {
	t.fpsTicker.Stop()
}
