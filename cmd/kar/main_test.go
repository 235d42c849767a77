// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/gbm/utility/kar"
)

func TestCompressAndExtract(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()
	frames := filepath.Join(root, "frames")
	archive := filepath.Join(root, "out.kar")

	c.Assert(os.MkdirAll(filepath.Join(frames, "sub"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(frames, "a.raw"), []byte("first frame"), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(frames, "sub", "b.raw"), []byte("second frame"), 0o644), qt.IsNil)

	c.Assert(compressFiles(frames, archive), qt.IsNil)
	c.Assert(compressFiles(frames, archive), qt.ErrorMatches, "destination file exists.*")
	c.Assert(listFiles(archive), qt.IsNil)

	ar, err := kar.OpenFile(archive)
	c.Assert(err, qt.IsNil)
	_, err = ar.Entry("sub/b.raw")
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Close(), qt.IsNil)

	extracted := filepath.Join(root, "extracted")
	c.Assert(extractFiles(archive, extracted), qt.IsNil)
	data, err := os.ReadFile(filepath.Join(extracted, "sub", "b.raw"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "second frame")
}

func TestExtractRefusesEscapingNames(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()

	builder, err := kar.NewBuilder(kar.Header{DateCreated: time.Now().Unix()})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	c.Assert(builder.Add("../escape.raw", strings.NewReader("nope"), nil), qt.IsNil)

	path := filepath.Join(root, "evil.kar")
	f, err := os.Create(path)
	c.Assert(err, qt.IsNil)
	_, err = builder.WriteTo(f)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	dst := filepath.Join(root, "out")
	c.Assert(extractFiles(path, dst), qt.ErrorMatches, ".*refusing to extract.*")
	_, err = os.Stat(filepath.Join(root, "escape.raw"))
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}
