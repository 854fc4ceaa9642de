package alloc

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/blockfs/addr"
	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/util"
)

// ErrNoSpace is returned when every number in the bitmap is in use.
var ErrNoSpace = errors.New("no space left on device")

// Alloc uses a one-block bit map to allocate and free numbers. Bit i
// corresponds to number i; a set bit means the number is in use. The map is
// read from disk on every call and written back on every change.
type Alloc struct {
	d     disk.Disk
	start common.Bnum // bitmap block
	max   uint64      // numbers >= max are never handed out
}

func MkAlloc(d disk.Disk, start common.Bnum, max uint64) *Alloc {
	if max > common.NBITBLOCK {
		panic("MkAlloc: bitmap does not fit in one block")
	}
	a := &Alloc{
		d:     d,
		start: start,
		max:   max,
	}
	return a
}

func (a *Alloc) Max() uint64 {
	return a.max
}

// AllocNum returns the lowest free number, marking it used.
func (a *Alloc) AllocNum() (uint64, error) {
	blk, err := a.d.Read(a.start)
	if err != nil {
		return 0, err
	}
	nbyte := util.RoundUp(a.max, 8)
	for i := uint64(0); i < nbyte; i++ {
		if blk[i] == 0xFF {
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			num := i*8 + bit
			if num >= a.max {
				break
			}
			if blk[i]&(1<<bit) == 0 {
				blk[i] = blk[i] | (1 << bit)
				if err := a.d.Write(a.start, blk); err != nil {
					return 0, err
				}
				util.DPrintf(10, "AllocNum: bitmap %d -> %d\n", a.start, num)
				return num, nil
			}
		}
	}
	return 0, fmt.Errorf("bitmap %d: %w", a.start, ErrNoSpace)
}

// SetBit sets bit num to v and persists the bitmap block.
func (a *Alloc) SetBit(num uint64, v bool) error {
	if num >= a.max {
		return fmt.Errorf("bitmap %d: bit %d out of range", a.start, num)
	}
	bitaddr := addr.MkBitAddr(a.start, num)
	var data byte
	if v {
		data = 1 << (bitaddr.Off % 8)
	}
	b := buf.MkBuf(bitaddr, 1, []byte{data})
	util.DPrintf(10, "SetBit: bitmap %d bit %d = %v\n", a.start, num, v)
	return b.WriteDirect(a.d)
}

func (a *Alloc) FreeNum(num uint64) error {
	return a.SetBit(num, false)
}

func (a *Alloc) MarkUsed(num uint64) error {
	return a.SetBit(num, true)
}

func (a *Alloc) IsUsed(num uint64) (bool, error) {
	if num >= a.max {
		return false, fmt.Errorf("bitmap %d: bit %d out of range", a.start, num)
	}
	bitaddr := addr.MkBitAddr(a.start, num)
	blk, err := a.d.Read(bitaddr.Blkno)
	if err != nil {
		return false, err
	}
	b := buf.MkBufLoad(bitaddr, 1, blk)
	return b.Data[0]&(1<<(bitaddr.Off%8)) != 0, nil
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// NumFree counts the numbers below max that are not in use.
func (a *Alloc) NumFree() (uint64, error) {
	blk, err := a.d.Read(a.start)
	if err != nil {
		return 0, err
	}
	var used uint64
	for i := uint64(0); i < a.max/8; i++ {
		used += popCnt(blk[i])
	}
	for num := a.max / 8 * 8; num < a.max; num++ {
		if blk[num/8]&(1<<(num%8)) != 0 {
			used++
		}
	}
	return a.max - used, nil
}
