package disk

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkBlock(b byte) Block {
	block := make(Block, BlockSize)
	for i := range block {
		block[i] = b
	}
	return block
}

func testReadWrite(t *testing.T, d Disk) {
	assert := assert.New(t)

	blk, err := d.Read(3)
	assert.NoError(err)
	assert.Equal(mkBlock(0), blk, "fresh disk should read zeros")

	assert.NoError(d.Write(3, mkBlock(7)))
	assert.NoError(d.Write(4, mkBlock(8)))
	blk, err = d.Read(3)
	assert.NoError(err)
	assert.Equal(mkBlock(7), blk)

	buf := make(Block, BlockSize)
	assert.NoError(d.ReadTo(4, buf))
	assert.Equal(mkBlock(8), buf)

	sz, err := d.Size()
	assert.NoError(err)
	assert.Equal(uint64(10), sz)
}

func testBounds(t *testing.T, d Disk) {
	assert := assert.New(t)

	_, err := d.Read(10)
	assert.True(errors.Is(err, ErrOutOfBounds), "read past end: %v", err)
	err = d.Write(10, mkBlock(1))
	assert.True(errors.Is(err, ErrOutOfBounds), "write past end: %v", err)
	err = d.Write(0, make(Block, 10))
	assert.True(errors.Is(err, ErrBlockSize), "short write buffer: %v", err)
}

func TestMemDisk(t *testing.T) {
	testReadWrite(t, NewMemDisk(10))
	testBounds(t, NewMemDisk(10))
}

func TestMemDiskNoAlias(t *testing.T) {
	d := NewMemDisk(2)
	v := mkBlock(1)
	require.NoError(t, d.Write(0, v))
	v[0] = 9
	blk, err := d.Read(0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), blk[0], "disk should copy written blocks")
}

func TestFileDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	d, err := NewFileDisk(path, 10)
	require.NoError(t, err)
	testReadWrite(t, d)
	testBounds(t, d)
	assert.NoError(t, d.Barrier())
	require.NoError(t, d.Close())

	d, err = NewFileDisk(path, 10)
	require.NoError(t, err)
	defer d.Close()
	blk, err := d.Read(3)
	require.NoError(t, err)
	assert.Equal(t, mkBlock(7), blk, "blocks should persist across reopen")
}
