package dirent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dargueta/fat32shell/dirent"
)

func TestPadName_PadsWithSpaces(t *testing.T) {
	raw := dirent.PadName("A")
	assert.Equal(t, byte('A'), raw[0])
	for i := 1; i < 11; i++ {
		assert.Equal(t, byte(' '), raw[i])
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	buf := make([]byte, dirent.Size)
	dirent.EncodeNew(buf, dirent.PadName("HELLO"), dirent.AttrDirectory)
	dirent.SetStartCluster(buf, 0x01020304)
	dirent.SetFileSize(buf, 4096)

	ent, err := dirent.Decode(buf, 7, 3)
	require.NoError(t, err)

	assert.Equal(t, "HELLO", ent.DisplayName())
	assert.True(t, ent.IsDir())
	assert.Equal(t, uint32(0x01020304), ent.FirstCluster)
	assert.Equal(t, uint32(4096), ent.FileSize)
	assert.Equal(t, uint32(7), ent.ClusterNum)
	assert.Equal(t, uint(3), ent.SlotIndex)
}

func TestEntry_IsFree(t *testing.T) {
	buf := make([]byte, dirent.Size)
	dirent.EncodeNew(buf, dirent.PadName("FILE"), 0)

	ent, err := dirent.Decode(buf, 2, 0)
	require.NoError(t, err)
	assert.False(t, ent.IsFree())

	dirent.MarkDeleted(buf)
	ent, err = dirent.Decode(buf, 2, 0)
	require.NoError(t, err)
	assert.True(t, ent.IsFree())
	assert.False(t, ent.IsEndOfTable())
}

func TestEntry_IsEndOfTable(t *testing.T) {
	buf := make([]byte, dirent.Size)
	ent, err := dirent.Decode(buf, 2, 0)
	require.NoError(t, err)
	assert.True(t, ent.IsEndOfTable())
	assert.True(t, ent.IsFree())
}

func TestDecode_ShortBufferIsError(t *testing.T) {
	_, err := dirent.Decode(make([]byte, 10), 2, 0)
	require.Error(t, err)
}
