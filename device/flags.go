// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "strings"

// Flags describe what a buffer will be used for. Bits are independent.
type Flags uint32

// Usage bits, numbered as in gbm.h
const (
	FlagScanout Flags = 1 << iota
	FlagCursor
	FlagRendering
	FlagWrite
	FlagLinear
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagScanout, "scanout"},
	{FlagCursor, "cursor"},
	{FlagRendering, "rendering"},
	{FlagWrite, "write"},
	{FlagLinear, "linear"},
}

// NewFlags returns an empty set. Setters return the updated set, so they
// chain: NewFlags().Scanout(true).Rendering(true)
func NewFlags() Flags {
	return 0
}

// Scanout sets or clears FlagScanout.
func (f Flags) Scanout(v bool) Flags { return f.set(FlagScanout, v) }

// Cursor sets or clears FlagCursor.
func (f Flags) Cursor(v bool) Flags { return f.set(FlagCursor, v) }

// Rendering sets or clears FlagRendering.
func (f Flags) Rendering(v bool) Flags { return f.set(FlagRendering, v) }

// Write sets or clears FlagWrite.
func (f Flags) Write(v bool) Flags { return f.set(FlagWrite, v) }

// Linear sets or clears FlagLinear.
func (f Flags) Linear(v bool) Flags { return f.set(FlagLinear, v) }

// Has reports whether every bit of other is set in f.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) set(flag Flags, v bool) Flags {
	if v {
		return f | flag
	}
	return f &^ flag
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
