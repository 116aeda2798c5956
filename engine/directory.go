package engine

import (
	"github.com/dargueta/fat32shell/dirent"
	"github.com/dargueta/fat32shell/errors"
)

// direntsPerCluster returns how many 32-byte slots fit in one cluster.
func (e *Engine) direntsPerCluster() uint {
	return uint(e.geom.BytesPerCluster()) / dirent.Size
}

// walkChain calls visit for every cluster in the chain starting at
// startCluster, stopping when visit returns stop == true or the chain ends.
// It treats running off the end of the chain without visit ever stopping as
// a normal, silent end -- directories are terminated by a 0x00 sentinel
// slot, not by chain length.
func (e *Engine) walkChain(startCluster uint32, visit func(clusterNum uint32, data []byte) (stop bool, err error)) error {
	clusterNum := startCluster
	for {
		data, err := e.clusters.ReadCluster(clusterNum)
		if err != nil {
			return err
		}

		stop, err := visit(clusterNum, data)
		if err != nil || stop {
			return err
		}

		next, err := e.clusters.NextCluster(clusterNum)
		if err != nil {
			return err
		}
		if next.EndOfChain {
			return nil
		}
		clusterNum = next.Next
	}
}

// liveEntries returns every non-free entry in the directory starting at
// startCluster, in on-disk order, following the chain across clusters as
// needed (spec.md §9 open question 5).
func (e *Engine) liveEntries(startCluster uint32) ([]dirent.Entry, error) {
	var entries []dirent.Entry
	perCluster := e.direntsPerCluster()

	err := e.walkChain(startCluster, func(clusterNum uint32, data []byte) (bool, error) {
		for slot := uint(0); slot < perCluster; slot++ {
			off := slot * dirent.Size
			raw := data[off : off+dirent.Size]

			if raw[0] == dirent.EndMarker {
				return true, nil
			}
			if raw[0] == dirent.FreeMarker {
				continue
			}

			ent, err := dirent.Decode(raw, clusterNum, slot)
			if err != nil {
				return true, err
			}
			entries = append(entries, ent)
		}
		return false, nil
	})

	return entries, err
}

// List returns the directory listing in spec order: "." and ".." first
// (synthesized even for the root, which has no on-disk entries for them),
// then every live entry's display name.
func (e *Engine) List() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.liveEntries(e.dirCtx.cluster)
	if err != nil {
		return nil, err
	}

	names := []string{".", ".."}
	for _, ent := range entries {
		names = append(names, ent.DisplayName())
	}
	return names, nil
}

// lookupLocked finds the live entry named name in the directory starting at
// startCluster. Callers must hold e.mu.
func (e *Engine) lookupLocked(startCluster uint32, name string) (dirent.Entry, error) {
	entries, err := e.liveEntries(startCluster)
	if err != nil {
		return dirent.Entry{}, err
	}
	for _, ent := range entries {
		if ent.DisplayName() == name {
			return ent, nil
		}
	}
	return dirent.Entry{}, errors.ErrNotFound.WithMessage("no such entry: " + name)
}

// Lookup finds the live entry named name in the current directory.
func (e *Engine) Lookup(name string) (dirent.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookupLocked(e.dirCtx.cluster, name)
}

// resolveStartCluster maps a directory entry's raw starting-cluster field
// to the cluster that should actually be navigated to: 0 means "no chain
// yet", which for a directory entry is interpreted as the root (spec.md §3
// invariants).
func (e *Engine) resolveStartCluster(raw uint32) uint32 {
	if raw == 0 {
		return e.geom.RootCluster
	}
	return raw
}

// ChangeDirectory implements `cd`. "." is a no-op. ".." pops one path
// segment and restores the parent cluster this engine itself pushed when it
// descended -- not by reading an on-disk ".." entry, since directories
// created by this engine never have child "."/".." entries materialized
// (mkdir never allocates a cluster; see cluster.Mapper.AllocateCluster).
// This is the standards-conformant fix for the "always jump to rootCluster"
// bug documented in spec.md §9.2.
func (e *Engine) ChangeDirectory(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch name {
	case ".":
		return nil
	case "..":
		if len(e.dirCtx.clusterStack) > 0 {
			e.dirCtx.cluster = e.dirCtx.clusterStack[len(e.dirCtx.clusterStack)-1]
			e.dirCtx.clusterStack = e.dirCtx.clusterStack[:len(e.dirCtx.clusterStack)-1]
			e.dirCtx.path = popPathSegment(e.dirCtx.path)
		}
		return nil
	}

	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}
	if !ent.IsDir() {
		return errors.ErrNotADirectory.WithMessage(name + " is not a directory")
	}

	e.dirCtx.clusterStack = append(e.dirCtx.clusterStack, e.dirCtx.cluster)
	e.dirCtx.cluster = e.resolveStartCluster(ent.FirstCluster)
	e.dirCtx.path = pushPathSegment(e.dirCtx.path, name)
	return nil
}

func pushPathSegment(path, name string) string {
	if path == "/" {
		return "/" + name
	}
	return path + "/" + name
}

func popPathSegment(path string) string {
	if path == "/" {
		return "/"
	}
	idx := lastIndexByte(path, '/')
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// findSlotForCreation scans the directory for the first free (0x00 or 0xE5)
// slot while running the name-collision check to completion, per spec.md
// §4.3's ordering requirement ("pre-existence check must run to completion
// before writing"). It returns NotFound-as-ok: a nil error with a valid
// slot means the directory has room; Exists or NoSpace otherwise.
func (e *Engine) findSlotForCreation(startCluster uint32, name string) (clusterNum uint32, slotIndex uint, err error) {
	perCluster := e.direntsPerCluster()
	found := false

	walkErr := e.walkChain(startCluster, func(cn uint32, data []byte) (bool, error) {
		for slot := uint(0); slot < perCluster; slot++ {
			off := slot * dirent.Size
			raw := data[off : off+dirent.Size]

			if raw[0] == dirent.EndMarker {
				if !found {
					clusterNum, slotIndex, found = cn, slot, true
				}
				return true, nil
			}
			if raw[0] == dirent.FreeMarker {
				if !found {
					clusterNum, slotIndex, found = cn, slot, true
				}
				continue
			}

			ent, decErr := dirent.Decode(raw, cn, slot)
			if decErr != nil {
				return true, decErr
			}
			if ent.DisplayName() == name {
				return true, errors.ErrExists.WithMessage(name + " already exists")
			}
		}
		return false, nil
	})

	if walkErr != nil {
		return 0, 0, walkErr
	}
	if !found {
		return 0, 0, errors.ErrNoSpace.WithMessage("directory has no free slot")
	}
	return clusterNum, slotIndex, nil
}

// createEntry implements the common body of mkdir/creat: validate the name,
// find a slot, write a fresh zeroed entry with starting cluster 0, and
// persist the cluster it landed in.
func (e *Engine) createEntry(name string, attr uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(name) > 11 {
		return errors.ErrNameTooLong.WithMessage(name)
	}

	clusterNum, slotIndex, err := e.findSlotForCreation(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}

	data, err := e.clusters.ReadCluster(clusterNum)
	if err != nil {
		return err
	}

	off := slotIndex * dirent.Size
	dirent.EncodeNew(data[off:off+dirent.Size], dirent.PadName(name), attr)

	return e.clusters.WriteCluster(clusterNum, data)
}

// CreateDirectory implements `mkdir NAME`.
func (e *Engine) CreateDirectory(name string) error {
	return e.createEntry(name, dirent.AttrDirectory)
}

// CreateFile implements `creat NAME`.
func (e *Engine) CreateFile(name string) error {
	return e.createEntry(name, 0)
}

// RemoveFile implements `rm NAME`: marks the slot deleted without freeing
// its cluster chain, a documented limitation (spec.md §4.3/§9.4).
func (e *Engine) RemoveFile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}
	if ent.IsDir() {
		return errors.ErrIsADirectory.WithMessage(name + " is a directory")
	}

	return e.deleteSlot(ent)
}

// RemoveDirectory implements `rmdir NAME`. "." and ".." are always refused.
// A directory counts as empty iff at most its first two conventional
// entries are live (spec.md §4.3).
func (e *Engine) RemoveDirectory(name string) error {
	if name == "." || name == ".." {
		return errors.ErrInvalidArgument.WithMessage("cannot remove " + name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ent, err := e.lookupLocked(e.dirCtx.cluster, name)
	if err != nil {
		return err
	}
	if !ent.IsDir() {
		return errors.ErrNotADirectory.WithMessage(name + " is not a directory")
	}

	// FirstCluster == 0 means "no chain yet" (createEntry never allocates one
	// for mkdir), so the directory is vacuously empty -- unlike
	// ChangeDirectory, this must NOT fall back to rootCluster, or every
	// never-written subdirectory would be checked against the root
	// directory's entries instead of its own (nonexistent) ones.
	if ent.FirstCluster != 0 {
		liveChildren, err := e.liveEntries(ent.FirstCluster)
		if err != nil {
			return err
		}
		for _, child := range liveChildren {
			if child.ClusterNum != ent.FirstCluster || child.SlotIndex >= 2 {
				return errors.ErrNotEmpty.WithMessage(name + " is not empty")
			}
		}
	}

	return e.deleteSlot(ent)
}

// deleteSlot overwrites an entry's name[0] with the deleted marker and
// persists the cluster it lives in.
func (e *Engine) deleteSlot(ent dirent.Entry) error {
	data, err := e.clusters.ReadCluster(ent.ClusterNum)
	if err != nil {
		return err
	}

	off := ent.SlotIndex * dirent.Size
	dirent.MarkDeleted(data[off : off+dirent.Size])

	return e.clusters.WriteCluster(ent.ClusterNum, data)
}
