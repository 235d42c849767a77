// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	if err := builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb"), nil); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"), nil); err != nil {
		t.Error(err)
	}

	if len(builder.files) != 2 {
		t.Error("incorrect number of files present")
	}

	buf := bytes.NewBuffer([]byte{})
	num, err := builder.WriteTo(buf)
	if err != nil {
		t.Error(err)
	}
	if num != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", num, buf.Len())
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("KAR\x00")) {
		t.Error("missing magic")
	}
	if builder.Len() != 0 {
		t.Error("builder not emptied by WriteTo")
	}
}

func TestAddDuplicateName(t *testing.T) {
	builder, err := NewBuilder(Header{})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	if err := builder.Add("frame", strings.NewReader("a"), nil); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("frame", strings.NewReader("b"), nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCloseRemovesTempDir(t *testing.T) {
	builder, err := NewBuilder(Header{})
	if err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("frame", strings.NewReader("data"), nil); err != nil {
		t.Fatal(err)
	}
	if err := builder.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(builder.tempDir); !os.IsNotExist(err) {
		t.Errorf("temp dir still present: %v", err)
	}
	if err := builder.Add("other", strings.NewReader("data"), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := builder.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
