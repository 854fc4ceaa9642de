package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mit-pdos/blockfs/common"
)

func TestMkBitAddr(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(MkAddr(2, 0), MkBitAddr(2, 0))
	assert.Equal(MkAddr(2, 13), MkBitAddr(2, 13))
	assert.Equal(MkAddr(3, 1), MkBitAddr(2, common.NBITBLOCK+1), "spills into next block")
}

func TestMkRecordAddr(t *testing.T) {
	assert := assert.New(t)
	a := MkRecordAddr(common.INODESTART, 1, common.INODESZ)
	assert.Equal(common.INODESTART, a.Blkno)
	assert.Equal(uint64(128), a.ByteOff())

	a = MkRecordAddr(common.INODESTART, 32, common.INODESZ)
	assert.Equal(common.INODESTART+1, a.Blkno, "32 inodes per block")
	assert.Equal(uint64(0), a.ByteOff())

	a = MkRecordAddr(common.INODESTART, 127, common.INODESZ)
	assert.Equal(common.INODESTART+3, a.Blkno)
	assert.Equal(uint64(31*128), a.ByteOff())
}

func TestFlatid(t *testing.T) {
	assert.Equal(t, uint64(4096*8+16), MkAddr(1, 16).Flatid())
}
