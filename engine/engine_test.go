package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32shell/testutil"
	"github.com/dargueta/fat32shell/volume"
)

// newTestEngine builds a fresh Engine over a procedurally generated image.
func newTestEngine(t *testing.T, cfg testutil.Config) (*Engine, []byte) {
	t.Helper()
	buf := testutil.BuildImage(cfg)
	img := testutil.NewBackingStore(buf)

	geom, err := volume.Parse(img, int64(len(buf)), "disk.img")
	require.NoError(t, err)

	return newForTesting(img, geom), buf
}

func TestOpen_StartsAtRoot(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, _ := newTestEngine(t, cfg)

	require.Equal(t, "/", e.Path())
	require.Equal(t, cfg.RootCluster, e.dirCtx.cluster)
}

func TestClose_ClearsHandles(t *testing.T) {
	cfg := testutil.DefaultConfig()
	e, buf := newTestEngine(t, cfg)
	testutil.PutDirEntry(buf, cfg, cfg.RootCluster, 0, "A", 0, 0, 0)

	require.NoError(t, e.Open("A", ModeReadWrite))
	require.Len(t, e.ListOpen(), 1)

	require.NoError(t, e.Close())
	require.Empty(t, e.ListOpen())
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"-r":  ModeRead,
		"-w":  ModeWrite,
		"-rw": ModeReadWrite,
		"-wr": ModeReadWrite,
	}
	for token, want := range cases {
		got, err := ParseMode(token)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseMode("-bogus")
	require.Error(t, err)
}
