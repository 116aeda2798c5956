// Package engine implements the FAT32 directory engine and open-file table
// as methods on a single Engine value. There is no package-level mutable
// state: every operation the shell dispatches is a method call against an
// Engine owned by the caller.
package engine

import (
	"sync"

	"github.com/dargueta/fat32shell/cluster"
	"github.com/dargueta/fat32shell/errors"
	"github.com/dargueta/fat32shell/imageio"
	"github.com/dargueta/fat32shell/volume"
)

// MaxOpenFiles is the fixed capacity of the open-file table.
const MaxOpenFiles = 10

// Mode is an open-file access mode.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeReadWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "-r"
	case ModeWrite:
		return "-w"
	case ModeReadWrite:
		return "-rw"
	default:
		return "?"
	}
}

func (m Mode) canRead() bool  { return m == ModeRead || m == ModeReadWrite }
func (m Mode) canWrite() bool { return m == ModeWrite || m == ModeReadWrite }

// ParseMode maps a command-line mode token to a Mode.
func ParseMode(token string) (Mode, error) {
	switch token {
	case "-r":
		return ModeRead, nil
	case "-w":
		return ModeWrite, nil
	case "-rw", "-wr":
		return ModeReadWrite, nil
	default:
		return 0, errors.ErrBadMode.WithMessage("unrecognized open mode " + token)
	}
}

// handle is one slot of the open-file table.
type handle struct {
	name         string
	mode         Mode
	startCluster uint32
	size         uint32
	offset       uint32
}

// directoryContext tracks the current working directory: its starting
// cluster and the human-readable path maintained in lockstep with it.
type directoryContext struct {
	cluster      uint32
	path         string
	clusterStack []uint32
}

// imageCloser is the subset of imageio.Image that Close needs. It's an
// interface, not the concrete type, so tests can back an Engine with an
// in-memory image that has nothing meaningful to close.
type imageCloser interface {
	Close() error
}

// Engine owns volume geometry, the cluster mapper, the directory context,
// and the open-file table for one mounted image.
type Engine struct {
	mu sync.Mutex

	geom     *volume.Geometry
	clusters *cluster.Mapper
	image    imageCloser

	dirCtx  directoryContext
	handles [MaxOpenFiles]*handle
}

// Open opens the image at path, parses its boot sector, and returns an
// Engine positioned at the root directory. Any error here is fatal to
// startup per the shell's exit-code contract.
func Open(path string) (*Engine, error) {
	img, err := imageio.Open(path)
	if err != nil {
		return nil, err
	}

	geom, err := volume.Parse(img, img.Size(), path)
	if err != nil {
		img.Close()
		return nil, err
	}

	return &Engine{
		geom:     geom,
		clusters: cluster.New(img, geom),
		image:    img,
		dirCtx:   directoryContext{cluster: geom.RootCluster, path: "/"},
	}, nil
}

// newForTesting builds an Engine directly from an in-memory image and
// geometry, bypassing imageio.Open. Only used by this package's own tests.
func newForTesting(img cluster.ReaderWriterAt, geom *volume.Geometry) *Engine {
	return &Engine{
		geom:     geom,
		clusters: cluster.New(img, geom),
		image:    nopCloser{},
		dirCtx:   directoryContext{cluster: geom.RootCluster, path: "/"},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Geometry returns the volume's immutable geometry, for the `info` command.
func (e *Engine) Geometry() *volume.Geometry {
	return e.geom
}

// Path returns the current working directory's path string.
func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirCtx.path
}

// Close destroys every open handle and then closes the underlying image.
// Per the state machine's terminal-state rule, all handles end up Closed on
// exit regardless of how they got there.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.handles {
		e.handles[i] = nil
	}

	if err := e.image.Close(); err != nil {
		return errors.ErrIOError.WrapError(err)
	}
	return nil
}
