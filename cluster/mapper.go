// Package cluster converts cluster numbers to byte offsets, performs
// whole-cluster reads/writes, walks the FAT to follow chains, and allocates
// the first cluster of a chain that doesn't exist yet.
package cluster

import (
	"encoding/binary"
	"io"

	"github.com/boljen/go-bitmap"
	"github.com/noxer/bytewriter"

	"github.com/dargueta/fat32shell/errors"
	"github.com/dargueta/fat32shell/volume"
)

// ReaderWriterAt is the minimal surface the mapper needs from the open
// image file.
type ReaderWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// Mapper is the cluster-mapper component: it owns no state but the
// lazily-built free-cluster cache, and is safe to reuse across every
// directory and file operation against one volume.
type Mapper struct {
	img  ReaderWriterAt
	geom *volume.Geometry

	freeMap  bitmap.Bitmap
	freeMapOK bool
}

// New creates a Mapper bound to an already-open image and its parsed
// geometry.
func New(img ReaderWriterAt, geom *volume.Geometry) *Mapper {
	return &Mapper{img: img, geom: geom}
}

// ReadCluster reads exactly one cluster's worth of bytes starting at
// cluster n.
func (m *Mapper) ReadCluster(n uint32) ([]byte, error) {
	buf := make([]byte, m.geom.BytesPerCluster())
	_, err := m.img.ReadAt(buf, m.geom.ClusterOffset(n))
	if err != nil {
		return nil, errors.ErrIOError.WrapError(err)
	}
	return buf, nil
}

// WriteCluster writes data -- which must be exactly one cluster long -- to
// cluster n. The bounded writer guarantees the write can never run past the
// cluster even if a caller hands it an oversized buffer.
func (m *Mapper) WriteCluster(n uint32, data []byte) error {
	bytesPerCluster := m.geom.BytesPerCluster()
	bounded := make([]byte, bytesPerCluster)
	w := bytewriter.New(bounded)
	if _, err := w.Write(data); err != nil {
		return errors.ErrIOError.WrapError(err)
	}

	if _, err := m.img.WriteAt(bounded, m.geom.ClusterOffset(n)); err != nil {
		return errors.ErrIOError.WrapError(err)
	}
	return nil
}

// ChainResult is the three-way outcome of following one link in a cluster
// chain, replacing the sentinel-value style of the original program.
type ChainResult struct {
	Next        uint32
	EndOfChain  bool
}

// NextCluster reads the FAT entry for cluster n and returns the next
// cluster in the chain, or EndOfChain if n is the last cluster.
func (m *Mapper) NextCluster(n uint32) (ChainResult, error) {
	raw := make([]byte, 4)
	if _, err := m.img.ReadAt(raw, m.geom.FATEntryOffset(n)); err != nil {
		return ChainResult{}, errors.ErrIOError.WrapError(err)
	}

	value := binary.LittleEndian.Uint32(raw) & 0x0FFFFFFF
	if value >= volume.EndOfChainThreshold {
		return ChainResult{EndOfChain: true}, nil
	}
	return ChainResult{Next: value}, nil
}

// setFATEntry writes the low 28 bits of value into cluster n's FAT entry,
// preserving the reserved high 4 bits of whatever was already there. Any
// FAT change invalidates the free-cluster cache.
func (m *Mapper) setFATEntry(n uint32, value uint32) error {
	raw := make([]byte, 4)
	if _, err := m.img.ReadAt(raw, m.geom.FATEntryOffset(n)); err != nil {
		return errors.ErrIOError.WrapError(err)
	}
	reservedBits := binary.LittleEndian.Uint32(raw) & 0xF0000000

	m.freeMapOK = false
	binary.LittleEndian.PutUint32(raw, reservedBits|(value&0x0FFFFFFF))
	if _, err := m.img.WriteAt(raw, m.geom.FATEntryOffset(n)); err != nil {
		return errors.ErrIOError.WrapError(err)
	}
	return nil
}

// MarkEndOfChain writes the end-of-chain marker into cluster n's FAT entry.
func (m *Mapper) MarkEndOfChain(n uint32) error {
	return m.setFATEntry(n, 0x0FFFFFFF)
}

// LinkNext writes "next" into cluster n's FAT entry, extending the chain.
func (m *Mapper) LinkNext(n, next uint32) error {
	return m.setFATEntry(n, next)
}

// buildFreeMap scans the whole FAT once and remembers which of the
// TotalClusters data clusters are free, so repeated allocations don't each
// re-scan the entire table. Grounded on drivers/common/allocatormap.go's
// bitmap-backed first-fit allocator.
func (m *Mapper) buildFreeMap() error {
	total := int(m.geom.TotalClusters)
	bm := bitmap.New(total)

	for i := 0; i < total; i++ {
		clusterNum := uint32(i) + 2
		result, err := m.NextCluster(clusterNum)
		if err != nil {
			return err
		}
		used := result.EndOfChain || result.Next != 0
		bm.Set(i, used)
	}

	m.freeMap = bm
	m.freeMapOK = true
	return nil
}

// AllocateCluster finds the first free cluster, marks it end-of-chain, and
// returns its cluster number. This is the only form of free-cluster
// allocation this engine performs: it gives a brand-new, empty chain its
// first cluster. It never extends a chain that already has one.
func (m *Mapper) AllocateCluster() (uint32, error) {
	if !m.freeMapOK {
		if err := m.buildFreeMap(); err != nil {
			return 0, err
		}
	}

	for i := 0; i < int(m.geom.TotalClusters); i++ {
		if !m.freeMap.Get(i) {
			clusterNum := uint32(i) + 2
			if err := m.MarkEndOfChain(clusterNum); err != nil {
				return 0, err
			}
			m.freeMap.Set(i, true)
			m.freeMapOK = true // the map already records this allocation
			return clusterNum, nil
		}
	}

	return 0, errors.ErrNoSpace.WithMessage("no free clusters remain on the volume")
}
