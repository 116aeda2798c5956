// Package volume decodes the FAT32 boot sector and derives volume geometry.
//
// This is the only place fixed byte offsets into sector 0 appear; every
// other component consumes the derived Geometry value instead of touching
// raw bytes.
package volume

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/fat32shell/errors"
)

// BootSectorSize is the number of bytes read from the start of the image to
// decode the BIOS Parameter Block.
const BootSectorSize = 512

// EndOfChainThreshold is the lowest FAT entry value (low 28 bits) that marks
// a cluster chain's end.
const EndOfChainThreshold = 0x0FFFFFF8

// Geometry is the immutable, derived description of a FAT32 volume. It is
// produced once when the image is opened and never mutated afterward.
type Geometry struct {
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumberOfFATs        uint8
	SectorsPerFAT       uint32
	RootCluster         uint32
	ImageSize           int64

	FirstDataSector uint32
	TotalClusters   uint32

	ImagePath string
	ImageName string
}

// BytesPerCluster returns the size, in bytes, of a single cluster.
func (g *Geometry) BytesPerCluster() uint32 {
	return uint32(g.BytesPerSector) * uint32(g.SectorsPerCluster)
}

// FATOffset returns the byte offset of the first FAT, i.e. where the FAT
// region begins. Deliberately NOT derived from RootCluster: RootCluster is a
// cluster number in the data region, not a sector count, and using it here
// is the documented bug this engine does not reproduce.
func (g *Geometry) FATOffset() int64 {
	return int64(g.ReservedSectorCount) * int64(g.BytesPerSector)
}

// FATEntryOffset returns the byte offset of the 32-bit FAT entry for cluster
// n.
func (g *Geometry) FATEntryOffset(n uint32) int64 {
	return g.FATOffset() + int64(n)*4
}

// ClusterOffset returns the byte offset of the start of cluster n. Cluster
// numbers below 2 are not valid data clusters.
func (g *Geometry) ClusterOffset(n uint32) int64 {
	sector := g.FirstDataSector + (n-2)*uint32(g.SectorsPerCluster)
	return int64(sector) * int64(g.BytesPerSector)
}

// Parse reads the first BootSectorSize bytes of reader and derives a
// Geometry. imagePath is stored as ImagePath and used to compute the
// prompt-facing ImageName; it has no bearing on the parsed fields.
func Parse(reader interface {
	ReadAt(p []byte, off int64) (int, error)
}, imageSize int64, imagePath string) (*Geometry, error) {
	if imageSize < BootSectorSize {
		return nil, errors.ErrInvalidImage.WithMessage(
			fmt.Sprintf("image is %d bytes, need at least %d", imageSize, BootSectorSize))
	}

	raw := make([]byte, BootSectorSize)
	if _, err := reader.ReadAt(raw, 0); err != nil {
		return nil, errors.ErrIOError.WrapError(err)
	}

	bytesPerSector := binary.LittleEndian.Uint16(raw[11:13])
	sectorsPerCluster := raw[13]
	reservedSectorCount := binary.LittleEndian.Uint16(raw[14:16])
	numberOfFATs := raw[16]
	sectorsPerFAT := binary.LittleEndian.Uint32(raw[36:40])
	rootCluster := binary.LittleEndian.Uint32(raw[44:48])

	var problems *multierror.Error
	if bytesPerSector == 0 {
		problems = multierror.Append(problems, fmt.Errorf("bytesPerSector is 0"))
	}
	if sectorsPerCluster == 0 {
		problems = multierror.Append(problems, fmt.Errorf("sectorsPerCluster is 0"))
	}
	if numberOfFATs == 0 {
		problems = multierror.Append(problems, fmt.Errorf("numberOfFATs is 0"))
	}
	if problems.ErrorOrNil() != nil {
		return nil, errors.ErrInvalidImage.WrapError(problems)
	}

	firstDataSector := uint32(reservedSectorCount) + uint32(numberOfFATs)*sectorsPerFAT

	totalSectors := uint32(imageSize / int64(bytesPerSector))
	var totalClusters uint32
	if totalSectors > firstDataSector {
		totalClusters = (totalSectors - firstDataSector) / uint32(sectorsPerCluster)
	}

	return &Geometry{
		BytesPerSector:      bytesPerSector,
		SectorsPerCluster:   sectorsPerCluster,
		ReservedSectorCount: reservedSectorCount,
		NumberOfFATs:        numberOfFATs,
		SectorsPerFAT:       sectorsPerFAT,
		RootCluster:         rootCluster,
		ImageSize:           imageSize,
		FirstDataSector:     firstDataSector,
		TotalClusters:       totalClusters,
		ImagePath:           imagePath,
		ImageName:           filepath.Base(imagePath),
	}, nil
}
