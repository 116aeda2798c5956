// Package testutil builds small, valid, in-memory FAT32 images for tests.
// Rather than shipping compressed golden images the way the teacher's
// testing/images.go does, this package builds one procedurally: a boot
// sector, a FAT region with the root cluster marked end-of-chain, and a
// zeroed (therefore already "empty, terminated") data region.
package testutil

import (
	"encoding/binary"

	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/fat32shell/dirent"
)

// Config describes the geometry of a synthetic image.
type Config struct {
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumberOfFATs        uint8
	SectorsPerFAT       uint32
	RootCluster         uint32
	TotalClusters       uint32
}

// DefaultConfig returns a small but fully valid geometry: 512-byte sectors,
// one sector per cluster, 16 data clusters.
func DefaultConfig() Config {
	return Config{
		BytesPerSector:      512,
		SectorsPerCluster:   1,
		ReservedSectorCount: 32,
		NumberOfFATs:        2,
		SectorsPerFAT:       8,
		RootCluster:         2,
		TotalClusters:       16,
	}
}

// BytesPerCluster returns the cluster size implied by cfg.
func (cfg Config) BytesPerCluster() uint32 {
	return uint32(cfg.BytesPerSector) * uint32(cfg.SectorsPerCluster)
}

func (cfg Config) fatRegionOffset() int64 {
	return int64(cfg.ReservedSectorCount) * int64(cfg.BytesPerSector)
}

func (cfg Config) dataRegionOffset() int64 {
	fatBytes := int64(cfg.NumberOfFATs) * int64(cfg.SectorsPerFAT) * int64(cfg.BytesPerSector)
	return cfg.fatRegionOffset() + fatBytes
}

// ClusterOffset returns the byte offset of the start of cluster n within
// the built image, mirroring volume.Geometry.ClusterOffset.
func (cfg Config) ClusterOffset(n uint32) int64 {
	return cfg.dataRegionOffset() + int64(n-2)*int64(cfg.BytesPerCluster())
}

// BuildImage allocates and initializes a raw image buffer: boot sector
// fields at their documented offsets, the root cluster's FAT entry marked
// end-of-chain, and a zeroed data region (whose first bytes are therefore
// already a valid "end of directory table" sentinel).
func BuildImage(cfg Config) []byte {
	total := cfg.dataRegionOffset() + int64(cfg.TotalClusters)*int64(cfg.BytesPerCluster())
	buf := make([]byte, total)

	binary.LittleEndian.PutUint16(buf[11:13], cfg.BytesPerSector)
	buf[13] = cfg.SectorsPerCluster
	binary.LittleEndian.PutUint16(buf[14:16], cfg.ReservedSectorCount)
	buf[16] = cfg.NumberOfFATs
	binary.LittleEndian.PutUint32(buf[36:40], cfg.SectorsPerFAT)
	binary.LittleEndian.PutUint32(buf[44:48], cfg.RootCluster)

	setFATEntry(buf, cfg, cfg.RootCluster, 0x0FFFFFFF)

	return buf
}

// setFATEntry writes value into the low 28 bits of the FAT entry for
// cluster n, in the first FAT only (this builder never exercises the
// secondary-FAT mirroring some real volumes keep).
func setFATEntry(buf []byte, cfg Config, n uint32, value uint32) {
	off := cfg.fatRegionOffset() + int64(n)*4
	binary.LittleEndian.PutUint32(buf[off:off+4], value&0x0FFFFFFF)
}

// AllocateCluster marks cluster n's FAT entry end-of-chain, as if it had
// just been allocated, without going through cluster.Mapper.
func AllocateCluster(buf []byte, cfg Config, n uint32) {
	setFATEntry(buf, cfg, n, 0x0FFFFFFF)
}

// LinkCluster points cluster n's FAT entry at "next", extending a chain
// without going through cluster.Mapper.
func LinkCluster(buf []byte, cfg Config, n, next uint32) {
	setFATEntry(buf, cfg, n, next)
}

// PutDirEntry writes a directory entry directly into cluster n's slot
// index, for seeding fixtures that need pre-existing files/directories.
func PutDirEntry(buf []byte, cfg Config, clusterNum uint32, slot uint, name string, attr uint8, firstCluster, size uint32) {
	clusterStart := cfg.ClusterOffset(clusterNum)
	off := clusterStart + int64(slot)*dirent.Size
	raw := buf[off : off+dirent.Size]

	padded := dirent.PadName(name)
	dirent.EncodeNew(raw, padded, attr)
	dirent.SetStartCluster(raw, firstCluster)
	dirent.SetFileSize(raw, size)
}

// ReaderWriterAt is the read/write/seek-backed byte buffer tests drive the
// engine and cluster mapper against, grounded on testing/images.go's use of
// bytesextra.NewReadWriteSeeker over raw bytes.
type ReaderWriterAt interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
}

// NewBackingStore wraps buf in an in-memory ReaderWriterAt.
func NewBackingStore(buf []byte) ReaderWriterAt {
	return bytesextra.NewReadWriteSeeker(buf)
}
