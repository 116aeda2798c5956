package volume_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32shell/testutil"
	"github.com/dargueta/fat32shell/volume"
)

func TestParse_ValidImage(t *testing.T) {
	cfg := testutil.DefaultConfig()
	buf := testutil.BuildImage(cfg)
	img := testutil.NewBackingStore(buf)

	geom, err := volume.Parse(img, int64(len(buf)), "/tmp/disk.img")
	require.NoError(t, err)

	assert.Equal(t, cfg.BytesPerSector, geom.BytesPerSector)
	assert.Equal(t, cfg.SectorsPerCluster, geom.SectorsPerCluster)
	assert.Equal(t, cfg.RootCluster, geom.RootCluster)
	assert.Equal(t, cfg.TotalClusters, geom.TotalClusters)
	assert.Equal(t, "disk.img", geom.ImageName)
}

func TestParse_ImageTooSmall(t *testing.T) {
	_, err := volume.Parse(testutil.NewBackingStore(make([]byte, 10)), 10, "small.img")
	require.Error(t, err)
}

func TestParse_ZeroBytesPerSectorIsInvalid(t *testing.T) {
	cfg := testutil.DefaultConfig()
	buf := testutil.BuildImage(cfg)
	buf[11], buf[12] = 0, 0

	_, err := volume.Parse(testutil.NewBackingStore(buf), int64(len(buf)), "broken.img")
	require.Error(t, err)
}

func TestGeometry_ClusterOffsetMatchesDataRegion(t *testing.T) {
	cfg := testutil.DefaultConfig()
	buf := testutil.BuildImage(cfg)
	geom, err := volume.Parse(testutil.NewBackingStore(buf), int64(len(buf)), "disk.img")
	require.NoError(t, err)

	assert.Equal(t, cfg.ClusterOffset(cfg.RootCluster), geom.ClusterOffset(geom.RootCluster))
}

func TestGeometry_FATOffsetUsesReservedSectorsNotRootCluster(t *testing.T) {
	cfg := testutil.DefaultConfig()
	cfg.RootCluster = 9
	buf := testutil.BuildImage(cfg)
	geom, err := volume.Parse(testutil.NewBackingStore(buf), int64(len(buf)), "disk.img")
	require.NoError(t, err)

	want := int64(cfg.ReservedSectorCount) * int64(cfg.BytesPerSector)
	assert.Equal(t, want, geom.FATOffset())
}
