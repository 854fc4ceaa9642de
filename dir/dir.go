// Package dir manages directory blocks: arrays of fixed-size entries that
// map names to inode numbers. An entry with inode number 0 is free, whether
// it was never used or was removed, and Insert reuses it.
package dir

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/mit-pdos/blockfs/addr"
	"github.com/mit-pdos/blockfs/buf"
	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

var (
	ErrNotFound = errors.New("no such file or directory")
	ErrNotDir   = errors.New("not a directory")
	ErrDirFull  = errors.New("directory is full")
)

type DirEnt struct {
	Inum common.Inum
	Name string
}

// Encode truncates names longer than NAMELEN bytes.
func (de *DirEnt) Encode() []byte {
	enc := marshal.NewEnc(common.DIRENTSZ)
	enc.PutInt32(uint32(de.Inum))
	name := []byte(de.Name)
	if uint64(len(name)) > common.NAMELEN {
		name = name[:common.NAMELEN]
	}
	enc.PutBytes(name)
	return enc.Finish()
}

func Decode(data []byte) *DirEnt {
	dec := marshal.NewDec(data)
	inum := common.Inum(dec.GetInt32())
	raw := dec.GetBytes(common.NAMELEN)
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		end = len(raw)
	}
	return &DirEnt{Inum: inum, Name: string(raw[:end])}
}

func (de *DirEnt) IsFree() bool {
	return de.Inum == common.NULLINUM
}

// Entry is one live directory entry as reported by List.
type Entry struct {
	Name string
	Inum common.Inum
	Mode inode.Mode
}

func entAddr(blkno common.Bnum, slot uint64) addr.Addr {
	return addr.MkRecordAddr(blkno, slot, common.DIRENTSZ)
}

func getEnt(blk disk.Block, slot uint64) *DirEnt {
	off := slot * common.DIRENTSZ
	return Decode(blk[off : off+common.DIRENTSZ])
}

func putEnt(blk disk.Block, slot uint64, de *DirEnt) {
	off := slot * common.DIRENTSZ
	copy(blk[off:off+common.DIRENTSZ], de.Encode())
}

// MkDirBlock returns a fresh directory block holding "." and "..".
func MkDirBlock(self common.Inum, parent common.Inum) disk.Block {
	blk := make(disk.Block, disk.BlockSize)
	putEnt(blk, 0, &DirEnt{Inum: self, Name: "."})
	putEnt(blk, 1, &DirEnt{Inum: parent, Name: ".."})
	return blk
}

// Dirs reads and updates directory blocks through the inode table.
type Dirs struct {
	d    disk.Disk
	itab *inode.Table
}

func MkDirs(d disk.Disk, itab *inode.Table) *Dirs {
	return &Dirs{d: d, itab: itab}
}

func (ds *Dirs) dirInode(dinum common.Inum) (*inode.Inode, error) {
	ip, err := ds.itab.Read(dinum)
	if err != nil {
		return nil, err
	}
	if !ip.IsDir() {
		return nil, fmt.Errorf("inode %d: %w", dinum, ErrNotDir)
	}
	return ip, nil
}

// scan calls f on every entry of every populated block of the directory, in
// stored order, until f returns true.
func (ds *Dirs) scan(ip *inode.Inode, f func(bn common.Bnum, slot uint64, de *DirEnt) bool) error {
	for _, bn := range ip.Blocks {
		if bn == common.NULLBNUM {
			continue
		}
		blk, err := ds.d.Read(bn)
		if err != nil {
			return err
		}
		for slot := uint64(0); slot < common.DIRENTBLK; slot++ {
			if f(bn, slot, getEnt(blk, slot)) {
				return nil
			}
		}
	}
	return nil
}

func (ds *Dirs) Lookup(dinum common.Inum, name string) (common.Inum, error) {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return common.NULLINUM, err
	}
	found := common.NULLINUM
	err = ds.scan(ip, func(_ common.Bnum, _ uint64, de *DirEnt) bool {
		if !de.IsFree() && de.Name == name {
			found = de.Inum
			return true
		}
		return false
	})
	if err != nil {
		return common.NULLINUM, err
	}
	if found == common.NULLINUM {
		return common.NULLINUM, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	util.DPrintf(10, "Lookup: %d/%s -> %d\n", dinum, name, found)
	return found, nil
}

// Insert writes an entry for child into the first free slot of the
// directory's first block.
func (ds *Dirs) Insert(dinum common.Inum, child common.Inum, name string) error {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return err
	}
	bn := ip.Blocks[0]
	blk, err := ds.d.Read(bn)
	if err != nil {
		return err
	}
	for slot := uint64(0); slot < common.DIRENTBLK; slot++ {
		if getEnt(blk, slot).IsFree() {
			de := &DirEnt{Inum: child, Name: name}
			b := buf.MkBuf(entAddr(bn, slot), common.DIRENTSZ*8, de.Encode())
			util.DPrintf(10, "Insert: %d/%s -> %d slot %d\n", dinum, name, child, slot)
			return b.WriteDirect(ds.d)
		}
	}
	return fmt.Errorf("inode %d: %w", dinum, ErrDirFull)
}

// Remove zeroes the first live entry called name. Removing a name that is
// not there does nothing.
func (ds *Dirs) Remove(dinum common.Inum, name string) error {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return err
	}
	var target *buf.Buf
	err = ds.scan(ip, func(bn common.Bnum, slot uint64, de *DirEnt) bool {
		if !de.IsFree() && de.Name == name {
			target = buf.MkBuf(entAddr(bn, slot), common.DIRENTSZ*8, make([]byte, common.DIRENTSZ))
			return true
		}
		return false
	})
	if err != nil || target == nil {
		return err
	}
	util.DPrintf(10, "Remove: %d/%s at %v\n", dinum, name, target.Addr)
	return target.WriteDirect(ds.d)
}

// List returns every live entry, "." and ".." included, with the mode of the
// inode it names.
func (ds *Dirs) List(dinum common.Inum) ([]Entry, error) {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return nil, err
	}
	var ents []*DirEnt
	err = ds.scan(ip, func(_ common.Bnum, _ uint64, de *DirEnt) bool {
		if !de.IsFree() {
			ents = append(ents, de)
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	res := make([]Entry, 0, len(ents))
	for _, de := range ents {
		child, err := ds.itab.Read(de.Inum)
		if err != nil {
			return nil, err
		}
		res = append(res, Entry{Name: de.Name, Inum: de.Inum, Mode: child.Mode})
	}
	return res, nil
}

// NumLive counts the live entries in the directory's first block. An empty
// directory has two.
func (ds *Dirs) NumLive(dinum common.Inum) (uint64, error) {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return 0, err
	}
	blk, err := ds.d.Read(ip.Blocks[0])
	if err != nil {
		return 0, err
	}
	var n uint64
	for slot := uint64(0); slot < common.DIRENTBLK; slot++ {
		if !getEnt(blk, slot).IsFree() {
			n++
		}
	}
	return n, nil
}

// Parent returns the inode named by the directory's ".." entry.
func (ds *Dirs) Parent(dinum common.Inum) (common.Inum, error) {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return common.NULLINUM, err
	}
	blk, err := ds.d.Read(ip.Blocks[0])
	if err != nil {
		return common.NULLINUM, err
	}
	return getEnt(blk, 1).Inum, nil
}

// SetParent points the directory's ".." entry at parent.
func (ds *Dirs) SetParent(dinum common.Inum, parent common.Inum) error {
	ip, err := ds.dirInode(dinum)
	if err != nil {
		return err
	}
	de := &DirEnt{Inum: parent, Name: ".."}
	b := buf.MkBuf(entAddr(ip.Blocks[0], 1), common.DIRENTSZ*8, de.Encode())
	return b.WriteDirect(ds.d)
}
