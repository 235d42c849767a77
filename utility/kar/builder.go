// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := os.MkdirTemp("", "karBuilder")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTempFail, err)
	}
	builder := &Builder{
		tempDir: temp,
		header:  header,
		names:   make(map[string]struct{}),
	}
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the temporary path given by the Builder
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64

	Meta map[string]string
}

// Builder is the high level builder for the archive format.
// Arhives are versioned and cannot be appended to, This Builder
// is the way to create an archive. Whenever Add is called, Builder
// will store the compressed file in a temporary dir,
// then finally bundling them togeter and writing them out with WriteTo.
type Builder struct {
	tempDir string
	header  Header

	mutex  sync.Mutex
	files  []tempFile
	names  map[string]struct{}
	closed bool
}

// Add compresses everything read from r into the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader, meta map[string]string) error {
	if err := b.reserve(name); err != nil {
		return err
	}

	file, err := b.compress(name, r, meta)
	if err != nil {
		b.mutex.Lock()
		delete(b.names, name)
		b.mutex.Unlock()
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, file)
	return nil
}

func (b *Builder) reserve(name string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.names[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	b.names[name] = struct{}{}
	return nil
}

func (b *Builder) compress(name string, r io.Reader, meta map[string]string) (tempFile, error) {
	f, err := os.CreateTemp(b.tempDir, "entry")
	if err != nil {
		return tempFile{}, fmt.Errorf("%w: %v", ErrTempFail, err)
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		os.Remove(f.Name())
		return tempFile{}, err
	}
	if err := writer.Close(); err != nil {
		os.Remove(f.Name())
		return tempFile{}, err
	}
	info, err := f.Stat()
	if err != nil {
		os.Remove(f.Name())
		return tempFile{}, err
	}
	return tempFile{
		Name:       name,
		TempName:   f.Name(),
		Size:       written,
		Compressed: info.Size(),
		Meta:       meta,
	}, nil
}

// Len returns the number of files added so far
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.files)
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use. The builder is empty afterwards.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return 0, ErrClosed
	}

	header := b.header
	header.Index = nil
	var offset int64
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Offset:         offset,
			Size:           v.Size,
			CompressedSize: v.Compressed,
			Meta:           v.Meta,
		})
		offset += v.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, part := range [][]byte{magic[:], int64ToBinary(int64(len(rawHeader))), rawHeader} {
		n, err := w.Write(part)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	for _, v := range b.files {
		n, err := copyFile(w, v.TempName)
		total += n
		if err != nil {
			return total, err
		}
	}

	for _, v := range b.files {
		os.Remove(v.TempName)
	}
	b.files = b.files[:0]
	b.names = make(map[string]struct{})
	return total, nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTempFail, err)
	}
	defer f.Close()
	return io.Copy(w, f)
}

// Close removes the temporary files, files not yet written are lost
func (b *Builder) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.files = nil
	runtime.SetFinalizer(b, nil)
	return os.RemoveAll(b.tempDir)
}
