// Package mdf wires components 4.A through 4.G into a single read-only
// handle over an MDF file, the way the teacher's disk_manager package turns
// raw ReadAt calls into a page abstraction the rest of the engine builds on
// (storage_engine/disk_manager/disk_manager.go).
package mdf

import (
	"context"
	"fmt"
	"os"

	"mdfengine/internal/vmem"
)

// FileReader implements pagepool.Reader over a single os.File, reading
// whole 64 KiB extents with ReadAt the way the teacher's DiskManager reads
// whole pages with ReadAt instead of seeking and streaming.
type FileReader struct {
	f *os.File
}

// OpenFileReader opens path read-only; the caller is responsible for
// calling Close once every page pool built on it is done.
func OpenFileReader(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mdf: open %s: %w", path, err)
	}
	return &FileReader{f: f}, nil
}

// ReadExtent reads the extentIdx-th 64 KiB extent of fileID. A short final
// extent (the last one in the file) is zero-padded to full size rather than
// reported as an error, matching files whose length is not an exact
// multiple of the extent size.
func (r *FileReader) ReadExtent(ctx context.Context, fileID uint16, extentIdx uint32) ([]byte, error) {
	buf := make([]byte, vmem.BlockSize)
	off := int64(extentIdx) * int64(vmem.BlockSize)
	n, err := r.f.ReadAt(buf, off)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("mdf: read extent %d: %w", extentIdx, err)
	}
	return buf, nil
}

// Close releases the underlying file descriptor.
func (r *FileReader) Close() error { return r.f.Close() }
