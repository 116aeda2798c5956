// Package imageio is the thin, external collaborator that turns a path on
// the host file system into a positionally-addressable image: open, seek,
// read, write, close. It knows nothing about FAT32; every byte offset it
// receives is computed by the engine's higher layers.
package imageio

import (
	"os"

	"github.com/dargueta/fat32shell/errors"
)

// Image is an open disk image file.
type Image struct {
	file *os.File
	size int64
}

// Open opens path for reading and writing. The caller is responsible for
// calling Close when done.
func Open(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.ErrIOError.WrapError(err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.ErrIOError.WrapError(err)
	}

	return &Image{file: f, size: info.Size()}, nil
}

// Size returns the image's length in bytes, as observed at open time.
func (img *Image) Size() int64 {
	return img.size
}

// ReadAt implements io.ReaderAt.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.file.ReadAt(p, off)
}

// WriteAt implements io.WriterAt.
func (img *Image) WriteAt(p []byte, off int64) (int, error) {
	return img.file.WriteAt(p, off)
}

// Close closes the underlying host file.
func (img *Image) Close() error {
	return img.file.Close()
}
