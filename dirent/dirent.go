// Package dirent decodes and encodes the 32-byte FAT directory entry record.
package dirent

import (
	"encoding/binary"
	"strings"

	"github.com/dargueta/fat32shell/errors"
)

// Size is the length, in bytes, of one raw directory entry.
const Size = 32

// Attribute bits. Only Directory is interpreted by this engine; the rest are
// decoded for round-trip fidelity but never inspected.
const (
	AttrReadOnly   = 0x01
	AttrHidden     = 0x02
	AttrSystem     = 0x04
	AttrVolumeID   = 0x08
	AttrDirectory  = 0x10
	AttrArchive    = 0x20
)

// FreeMarker is the byte that name[0] holds for a deleted/free slot.
const FreeMarker = 0xE5

// EndMarker is the byte that name[0] holds for the first unused slot in the
// table; it terminates the directory.
const EndMarker = 0x00

// Entry is a decoded 32-byte directory entry plus its slot position, which
// callers need to rewrite it in place.
type Entry struct {
	RawName      [11]byte
	Attr         uint8
	FirstCluster uint32
	FileSize     uint32

	// ClusterNum and SlotIndex locate this entry's 32 bytes within its
	// directory's cluster chain: the cluster the slot lives in, and the
	// slot's index within that cluster (byte offset divided by Size).
	ClusterNum uint32
	SlotIndex  uint
}

// IsDir reports whether the entry's attribute bits mark it a subdirectory.
func (e *Entry) IsDir() bool {
	return e.Attr&AttrDirectory != 0
}

// DisplayName strips the trailing space padding from the raw 11-byte name.
func (e *Entry) DisplayName() string {
	return strings.TrimRight(string(e.RawName[:]), " ")
}

// IsFree reports whether the slot is deleted (0xE5) or marks end-of-table
// (0x00).
func (e *Entry) IsFree() bool {
	return e.RawName[0] == FreeMarker || e.RawName[0] == EndMarker
}

// IsEndOfTable reports whether the slot is the end-of-table sentinel.
func (e *Entry) IsEndOfTable() bool {
	return e.RawName[0] == EndMarker
}

// Decode parses a 32-byte slot. clusterNum/slotIndex are carried through
// unchanged so the caller can later rewrite this exact slot.
func Decode(data []byte, clusterNum uint32, slotIndex uint) (Entry, error) {
	if len(data) < Size {
		return Entry{}, errors.ErrIOError.WithMessage("short directory entry read")
	}

	var e Entry
	copy(e.RawName[:], data[0:11])
	e.Attr = data[11]

	firstClusterHigh := binary.LittleEndian.Uint16(data[20:22])
	firstClusterLow := binary.LittleEndian.Uint16(data[26:28])
	e.FirstCluster = (uint32(firstClusterHigh) << 16) | uint32(firstClusterLow)
	e.FileSize = binary.LittleEndian.Uint32(data[28:32])

	e.ClusterNum = clusterNum
	e.SlotIndex = slotIndex
	return e, nil
}

// PadName converts a display name (already validated to be <= 11 chars) to
// the on-disk space-padded, upper-case-as-given 11-byte form. An 8.3 dot
// between name and extension, if present, is kept like any other byte: callers
// are expected to pass names that already fit 11 raw bytes, matching how `mkdir`
// and `creat` are specified to work (no dot-splitting logic; the caller's
// NAME argument is copied byte for byte, padded with spaces).
func PadName(name string) [11]byte {
	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}
	copy(raw[:], name)
	return raw
}

// EncodeNew writes a freshly created entry (mkdir/creat) into a 32-byte
// buffer: name and attribute are set, everything else -- timestamps,
// NT-reserved byte, starting cluster, size -- is zeroed. Per the directory
// engine's creation semantics, a brand new entry never has a starting
// cluster until its first write.
func EncodeNew(buf []byte, name [11]byte, attr uint8) {
	for i := range buf[:Size] {
		buf[i] = 0
	}
	copy(buf[0:11], name[:])
	buf[11] = attr
}

// MarkDeleted overwrites name[0] with the deleted-slot marker in place,
// leaving the rest of the entry (including its cluster chain pointer)
// untouched -- freeing the chain in the FAT is a documented limitation, not
// something this function does.
func MarkDeleted(buf []byte) {
	buf[0] = FreeMarker
}

// SetStartCluster rewrites the firstClusterHigh/Low fields of an encoded
// entry in place.
func SetStartCluster(buf []byte, cluster uint32) {
	binary.LittleEndian.PutUint16(buf[20:22], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(buf[26:28], uint16(cluster&0xFFFF))
}

// SetFileSize rewrites the fileSize field of an encoded entry in place.
func SetFileSize(buf []byte, size uint32) {
	binary.LittleEndian.PutUint32(buf[28:32], size)
}
