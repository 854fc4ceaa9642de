// buf manages sub-block disk objects, to be packed into disk blocks
package buf

import (
	"fmt"

	"github.com/mit-pdos/blockfs/addr"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/util"
)

// A Buf is a write to a disk object (inode, a bitmap bit, a directory entry
// or a disk block)
type Buf struct {
	Addr  addr.Addr
	Sz    uint64 // number of bits
	Data  []byte
	dirty bool // has this object been written to?
}

func MkBuf(addr addr.Addr, sz uint64, data []byte) *Buf {
	b := &Buf{
		Addr:  addr,
		Sz:    sz,
		Data:  data,
		dirty: false,
	}
	return b
}

// Load the bits of a disk block into a new buf, as specified by addr
func MkBufLoad(addr addr.Addr, sz uint64, blk disk.Block) *Buf {
	bytefirst := addr.Off / 8
	bytelast := (addr.Off + sz - 1) / 8
	data := blk[bytefirst : bytelast+1]
	b := &Buf{
		Addr:  addr,
		Sz:    sz,
		Data:  data,
		dirty: false,
	}
	return b
}

// Install 1 bit from src into dst, at offset bit. return new dst.
func installOneBit(src byte, dst byte, bit uint64) byte {
	var new byte = dst
	if src&(1<<bit) != dst&(1<<bit) {
		if src&(1<<bit) == 0 {
			// dst is 1, but should be 0
			new = new & ^(1 << bit)
		} else {
			// dst is 0, but should be 1
			new = new | (1 << bit)
		}
	}
	return new
}

// Install bit from src to dst, at dstoff in destination. dstoff is in bits.
func installBit(src []byte, dst []byte, dstoff uint64) {
	dstbyte := dstoff / 8
	dst[dstbyte] = installOneBit(src[0], dst[dstbyte], (dstoff)%8)
}

// Install bytes from src to dst.
func installBytes(src []byte, dst []byte, dstoff uint64, nbit uint64) {
	sz := nbit / 8
	copy(dst[dstoff/8:dstoff/8+sz], src[:sz])
}

// Install the bits from buf into blk.  Two cases: a bit or a byte-aligned
// record
func (buf *Buf) Install(blk disk.Block) error {
	util.DPrintf(20, "%v: install\n", buf.Addr)
	if buf.Sz == 1 {
		installBit(buf.Data, blk, buf.Addr.Off)
	} else if buf.Sz%8 == 0 && buf.Addr.Off%8 == 0 {
		installBytes(buf.Data, blk, buf.Addr.Off, buf.Sz)
	} else {
		return fmt.Errorf("install %d bits at %v: unsupported", buf.Sz, buf.Addr)
	}
	return nil
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// WriteDirect writes buf to its block immediately. A sub-block buf is
// installed into the current contents of the block, so the other objects
// sharing the block are preserved.
func (buf *Buf) WriteDirect(d disk.Disk) error {
	buf.SetDirty()
	if buf.Sz == disk.BlockSize*8 {
		return d.Write(uint64(buf.Addr.Blkno), buf.Data)
	}
	blk, err := d.Read(uint64(buf.Addr.Blkno))
	if err != nil {
		return err
	}
	if err := buf.Install(blk); err != nil {
		return err
	}
	return d.Write(uint64(buf.Addr.Blkno), blk)
}
