package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32shell/errors"
	"github.com/dargueta/fat32shell/testutil"
)

func TestOpen_RejectsDirectory(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateDirectory("ADIR"))
	err := e.Open("ADIR", ModeRead)
	require.Error(t, err)
	assert.True(t, errors.ErrIsADirectory.Is(err))
}

func TestOpen_RejectsDoubleOpen(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("F"))
	require.NoError(t, e.Open("F", ModeRead))
	err := e.Open("F", ModeRead)
	require.Error(t, err)
	assert.True(t, errors.ErrAlreadyOpen.Is(err))
}

func TestOpen_TableFullAfterMaxOpenFiles(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.TotalClusters = 32
	e, _ := newTestEngine(t, cfg)

	for i := 0; i < MaxOpenFiles; i++ {
		name := string(rune('A' + i))
		require.NoError(t, e.CreateFile(name))
		require.NoError(t, e.Open(name, ModeRead))
	}

	require.NoError(t, e.CreateFile("OVERFLOW"))
	err := e.Open("OVERFLOW", ModeRead)
	require.Error(t, err)
	assert.True(t, errors.ErrTooManyOpen.Is(err))
}

func TestCloseFile_RejectsNotOpen(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	err := e.CloseFile("GHOST")
	require.Error(t, err)
	assert.True(t, errors.ErrNotOpen.Is(err))
}

func TestSeek_RejectsOffsetPastSize(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, buf := newTestEngine(t, cfg)
	testutil.PutDirEntry(buf, cfg, cfg.RootCluster, 0, "F", 0, 0, 10)

	require.NoError(t, e.Open("F", ModeRead))
	err := e.Seek("F", 11)
	require.Error(t, err)
	assert.True(t, errors.ErrOffsetTooLarge.Is(err))
}

func TestWriteThenRead_RoundTripThroughFreshChain(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("DATA"))
	require.NoError(t, e.Open("DATA", ModeReadWrite))

	payload := []byte("hello, fat32")
	require.NoError(t, e.Write("DATA", payload))
	require.NoError(t, e.Seek("DATA", 0))

	got, err := e.Read("DATA", uint32(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWrite_AllocatesOnlyOnFirstWrite(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("DATA"))
	ent, err := e.Lookup("DATA")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), ent.FirstCluster)

	require.NoError(t, e.Open("DATA", ModeWrite))
	require.NoError(t, e.Write("DATA", []byte("x")))

	ent, err = e.Lookup("DATA")
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0), ent.FirstCluster)
}

func TestWrite_NoSpaceWhenChainExhausted(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.BytesPerSector = 64
	cfg.SectorsPerCluster = 1
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("DATA"))
	require.NoError(t, e.Open("DATA", ModeWrite))

	oversized := make([]byte, cfg.BytesPerCluster()+1)
	err := e.Write("DATA", oversized)
	require.Error(t, err)
	assert.True(t, errors.ErrNoSpace.Is(err))
}

func TestRead_NotOpenIsError(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	_, err := e.Read("NOPE", 1)
	require.Error(t, err)
	assert.True(t, errors.ErrNotOpen.Is(err))
}

func TestRead_StopsAtFileSizeEvenIfMoreRequested(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("SMALL"))
	require.NoError(t, e.Open("SMALL", ModeReadWrite))
	require.NoError(t, e.Write("SMALL", []byte("abc")))
	require.NoError(t, e.Seek("SMALL", 0))

	got, err := e.Read("SMALL", 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestListOpen_ReportsActiveHandles(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.NoError(t, e.CreateFile("ONE"))
	require.NoError(t, e.Open("ONE", ModeRead))

	open := e.ListOpen()
	require.Len(t, open, 1)
	assert.Equal(t, "ONE", open[0].Name)
	assert.Equal(t, ModeRead, open[0].Mode)
}
