package engine

import (
	"github.com/dargueta/fat32shell/dirent"
	"github.com/dargueta/fat32shell/errors"
)

// OpenFileInfo is the read-only view of an active handle returned by
// ListOpen (the `lsof` command).
type OpenFileInfo struct {
	Index  int
	Name   string
	Mode   Mode
	Offset uint32
}

// findHandleIndex returns the slot index of the handle named name, or -1.
// Callers must hold e.mu.
func (e *Engine) findHandleIndex(name string) int {
	for i, h := range e.handles {
		if h != nil && h.name == name {
			return i
		}
	}
	return -1
}

// firstFreeHandleIndex returns the index of an unused slot, or -1 if the
// table is full. Callers must hold e.mu.
func (e *Engine) firstFreeHandleIndex() int {
	for i, h := range e.handles {
		if h == nil {
			return i
		}
	}
	return -1
}

// Open implements `open NAME MODE`.
func (e *Engine) Open(name string, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.findHandleIndex(name) >= 0 {
		return errors.ErrAlreadyOpen.WithMessage(name + " is already open")
	}

	slot := e.firstFreeHandleIndex()
	if slot < 0 {
		return errors.ErrTooManyOpen.WithMessage("open-file table is full")
	}

	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}
	if ent.IsDir() {
		return errors.ErrIsADirectory.WithMessage(name + " is a directory")
	}

	e.handles[slot] = &handle{
		name:         name,
		mode:         mode,
		startCluster: ent.FirstCluster,
		size:         ent.FileSize,
		offset:       0,
	}
	return nil
}

// CloseFile implements `close NAME`.
func (e *Engine) CloseFile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findHandleIndex(name)
	if idx < 0 {
		return errors.ErrNotOpen.WithMessage(name + " is not open")
	}
	e.handles[idx] = nil
	return nil
}

// ListOpen implements `lsof`.
func (e *Engine) ListOpen() []OpenFileInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []OpenFileInfo
	for i, h := range e.handles {
		if h != nil {
			out = append(out, OpenFileInfo{Index: i, Name: h.name, Mode: h.mode, Offset: h.offset})
		}
	}
	return out
}

// Seek implements `lseek NAME OFFSET`.
func (e *Engine) Seek(name string, newOffset uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findHandleIndex(name)
	if idx < 0 {
		return errors.ErrNotOpen.WithMessage(name + " is not open")
	}
	h := e.handles[idx]
	if newOffset > h.size {
		return errors.ErrOffsetTooLarge.WithMessage("offset exceeds file size")
	}
	h.offset = newOffset
	return nil
}

// clusterAndByteAt walks the chain starting at startCluster to the cluster
// holding byte offset byteOffset, per-cluster.
func (e *Engine) clusterAndByteAt(startCluster uint32, byteOffset uint32) (clusterNum uint32, withinCluster uint32, err error) {
	bytesPerCluster := e.geom.BytesPerCluster()
	skip := byteOffset / bytesPerCluster
	withinCluster = byteOffset % bytesPerCluster

	clusterNum = startCluster
	for i := uint32(0); i < skip; i++ {
		next, nerr := e.clusters.NextCluster(clusterNum)
		if nerr != nil {
			return 0, 0, nerr
		}
		if next.EndOfChain {
			return 0, 0, errors.ErrOffsetTooLarge.WithMessage("offset beyond allocated chain")
		}
		clusterNum = next.Next
	}
	return clusterNum, withinCluster, nil
}

// Read implements `read NAME N`.
func (e *Engine) Read(name string, n uint32) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findHandleIndex(name)
	if idx < 0 {
		return nil, errors.ErrNotOpen.WithMessage(name + " is not open")
	}
	h := e.handles[idx]
	if !h.mode.canRead() {
		return nil, errors.ErrNotReadable.WithMessage(name + " not opened for reading")
	}

	available := h.size - h.offset
	actual := n
	if actual > available {
		actual = available
	}
	if actual == 0 {
		return []byte{}, nil
	}

	out := make([]byte, 0, actual)
	clusterNum, withinCluster, err := e.clusterAndByteAt(h.startCluster, h.offset)
	if err != nil {
		return nil, err
	}

	bytesPerCluster := e.geom.BytesPerCluster()
	remaining := actual
	for remaining > 0 {
		data, err := e.clusters.ReadCluster(clusterNum)
		if err != nil {
			return nil, err
		}

		chunk := bytesPerCluster - withinCluster
		if chunk > remaining {
			chunk = remaining
		}
		out = append(out, data[withinCluster:withinCluster+chunk]...)
		remaining -= chunk

		if remaining == 0 {
			break
		}

		next, err := e.clusters.NextCluster(clusterNum)
		if err != nil {
			return nil, err
		}
		if next.EndOfChain {
			return nil, errors.ErrIOError.WithMessage("chain ended before requested bytes were read")
		}
		clusterNum = next.Next
		withinCluster = 0
	}

	h.offset += actual
	return out, nil
}

// Write implements `write NAME STRING`. If the handle's starting cluster is
// 0 -- no chain allocated yet -- the first write allocates exactly one
// cluster and links it into the directory entry (spec.md §8 scenario 4).
// Writing past the end of an already-allocated chain is NoSpace: chain
// extension beyond that first allocation remains out of scope.
func (e *Engine) Write(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.findHandleIndex(name)
	if idx < 0 {
		return errors.ErrNotOpen.WithMessage(name + " is not open")
	}
	h := e.handles[idx]
	if !h.mode.canWrite() {
		return errors.ErrNotWritable.WithMessage(name + " not opened for writing")
	}

	if h.startCluster == 0 {
		newCluster, err := e.clusters.AllocateCluster()
		if err != nil {
			return err
		}
		h.startCluster = newCluster
		if err := e.updateDirentStartCluster(name, newCluster); err != nil {
			return err
		}
	}

	clusterNum, withinCluster, err := e.clusterAndByteAt(h.startCluster, h.offset)
	if err != nil {
		if errors.ErrOffsetTooLarge.Is(err) {
			return errors.ErrNoSpace.WithMessage("write runs past the end of the allocated chain")
		}
		return err
	}

	bytesPerCluster := e.geom.BytesPerCluster()
	remaining := uint32(len(data))
	written := uint32(0)

	for remaining > 0 {
		buf, err := e.clusters.ReadCluster(clusterNum)
		if err != nil {
			return err
		}

		chunk := bytesPerCluster - withinCluster
		if chunk > remaining {
			chunk = remaining
		}
		copy(buf[withinCluster:withinCluster+chunk], data[written:written+chunk])
		if err := e.clusters.WriteCluster(clusterNum, buf); err != nil {
			return err
		}

		written += chunk
		remaining -= chunk
		if remaining == 0 {
			break
		}

		next, err := e.clusters.NextCluster(clusterNum)
		if err != nil {
			return err
		}
		if next.EndOfChain {
			return errors.ErrNoSpace.WithMessage("write runs past the end of the allocated chain")
		}
		clusterNum = next.Next
		withinCluster = 0
	}

	h.offset += written
	if h.offset > h.size {
		h.size = h.offset
		if err := e.updateDirentFileSize(name, h.size); err != nil {
			return err
		}
	}
	return nil
}

// updateDirentStartCluster rewrites name's directory entry with a new
// starting cluster. Callers must hold e.mu.
func (e *Engine) updateDirentStartCluster(name string, newCluster uint32) error {
	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}

	buf, err := e.clusters.ReadCluster(ent.ClusterNum)
	if err != nil {
		return err
	}
	off := ent.SlotIndex * dirent.Size
	dirent.SetStartCluster(buf[off:off+dirent.Size], newCluster)
	return e.clusters.WriteCluster(ent.ClusterNum, buf)
}

// updateDirentFileSize rewrites name's directory entry with a new file
// size. Callers must hold e.mu.
func (e *Engine) updateDirentFileSize(name string, size uint32) error {
	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}

	buf, err := e.clusters.ReadCluster(ent.ClusterNum)
	if err != nil {
		return err
	}
	off := ent.SlotIndex * dirent.Size
	dirent.SetFileSize(buf[off:off+dirent.Size], size)
	return e.clusters.WriteCluster(ent.ClusterNum, buf)
}
