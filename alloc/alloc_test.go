package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/blockfs/disk"
)

func TestPopCnt(t *testing.T) {
	assert.Equal(t, uint64(0), popCnt(0))
	assert.Equal(t, uint64(1), popCnt(1))
	assert.Equal(t, uint64(1), popCnt(2))
	assert.Equal(t, uint64(2), popCnt(3))
	assert.Equal(t, uint64(8), popCnt(255))
}

func mkAlloc(max uint64) *Alloc {
	return MkAlloc(disk.NewMemDisk(4), 1, max)
}

func TestAlloc(t *testing.T) {
	assert := assert.New(t)
	max := uint64(32)
	a := mkAlloc(max)

	n, err := a.NumFree()
	assert.NoError(err)
	assert.Equal(max, n, "everything should be initially free")

	assert.NoError(a.MarkUsed(0))
	n1, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(1), n1, "should not allocate something marked used")

	assert.NoError(a.MarkUsed(n1 + 1))
	n2, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(3), n2)

	n, _ = a.NumFree()
	assert.Equal(max-4, n, "should have used 4 items")

	assert.NoError(a.FreeNum(n1))
	assert.NoError(a.FreeNum(n2))
	n, _ = a.NumFree()
	assert.Equal(max-2, n, "should have freed")
}

func TestFirstFitReuse(t *testing.T) {
	assert := assert.New(t)
	a := mkAlloc(64)
	var nums []uint64
	for i := 0; i < 20; i++ {
		n, err := a.AllocNum()
		require.NoError(t, err)
		nums = append(nums, n)
	}
	assert.Equal(uint64(0), nums[0])
	assert.Equal(uint64(19), nums[19], "ascending")

	assert.NoError(a.FreeNum(9))
	n, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(9), n, "freed number reused before untouched ones")

	n, err = a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(20), n)
}

func TestExhaustion(t *testing.T) {
	assert := assert.New(t)
	a := mkAlloc(10)
	for i := uint64(0); i < 10; i++ {
		n, err := a.AllocNum()
		require.NoError(t, err)
		assert.Equal(i, n)
	}
	_, err := a.AllocNum()
	assert.True(errors.Is(err, ErrNoSpace), "got %v", err)

	// still usable after exhaustion
	assert.NoError(a.FreeNum(4))
	n, err := a.AllocNum()
	assert.NoError(err)
	assert.Equal(uint64(4), n)
}

func TestIsUsed(t *testing.T) {
	assert := assert.New(t)
	a := mkAlloc(16)
	assert.NoError(a.MarkUsed(11))
	used, err := a.IsUsed(11)
	assert.NoError(err)
	assert.True(used)
	used, err = a.IsUsed(10)
	assert.NoError(err)
	assert.False(used)

	_, err = a.IsUsed(16)
	assert.Error(err, "out of range")
	assert.Error(a.SetBit(16, true), "out of range")
}

func TestBitmapLayout(t *testing.T) {
	d := disk.NewMemDisk(4)
	a := MkAlloc(d, 2, 1024)
	for i := 0; i < 11; i++ {
		_, err := a.AllocNum()
		require.NoError(t, err)
	}
	blk, err := d.Read(2)
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), blk[0])
	assert.Equal(t, byte(0x07), blk[1], "low bits first")
	assert.Equal(t, byte(0), blk[2])
}
