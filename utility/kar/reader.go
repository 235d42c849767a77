// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Limits applied to a decoded header before any entry is read
const (
	maxHeaderSize = 64 << 20
	maxEntrySize  = 1 << 32
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if err := readAt(r, prefix, 0); err != nil {
		return nil, err
	}
	if string(prefix[:MagicLength]) != string(magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(prefix[MagicLength:])
	if err != nil || headerSize <= 0 || headerSize > maxHeaderSize {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if err := readAt(r, headerBytes, int64(len(prefix))); err != nil {
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}

	ar := &Archive{
		reader:     r,
		header:     header,
		dataOffset: int64(len(prefix)) + headerSize,
		index:      make(map[string]int, len(header.Index)),
	}
	dataSize, known := readerSize(r)
	dataSize -= ar.dataOffset
	for i, e := range header.Index {
		if err := validEntry(e, dataSize, known); err != nil {
			return nil, err
		}
		ar.index[e.Name] = i
	}
	return ar, nil
}

// readerSize returns the total length of r when it can tell
func readerSize(r io.ReaderAt) (int64, bool) {
	switch sized := r.(type) {
	case interface{ Size() int64 }:
		return sized.Size(), true
	case interface{ Len() int }:
		return int64(sized.Len()), true
	}
	return 0, false
}

// validEntry checks an index entry against the data that follows the header
func validEntry(e IndexEntry, dataSize int64, known bool) error {
	if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 || e.Size > maxEntrySize {
		return fmt.Errorf("%w: entry %q has invalid sizes", ErrFileFormat, e.Name)
	}
	if known && (e.Offset > dataSize || e.CompressedSize > dataSize-e.Offset) {
		return fmt.Errorf("%w: entry %q past the end of the archive", ErrFileFormat, e.Name)
	}
	return nil
}

// readAt fills p, a short read means a truncated archive
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		return ErrFileFormat
	}
	return err
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader     io.ReaderAt
	header     Header
	dataOffset int64
	index      map[string]int
}

// Header returns the archive header, including the index
func (a *Archive) Header() Header {
	return a.header
}

// Entry returns the index entry of a file
func (a *Archive) Entry(name string) (IndexEntry, error) {
	i, ok := a.index[name]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.header.Index[i], nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	// the buffer grows with what actually decompresses, not with the index
	data, err := io.ReadAll(io.LimitReader(r, r.Size()+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if int64(len(data)) != r.Size() {
		return nil, fmt.Errorf("%w: %s holds %d bytes, index says %d", ErrFileFormat, name, len(data), r.Size())
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.Entry(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataOffset+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Size is the uncompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Meta returns the attributes stored with the file
func (r *Reader) Meta() map[string]string {
	return r.entry.Meta
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
