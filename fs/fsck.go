package fs

import (
	"fmt"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

// Report is the result of Fsck. Orphans are allocated in a bitmap but not
// reachable from the root; the usual cause is a crash in the middle of a
// multi-step operation.
type Report struct {
	Inodes       uint64 // reachable inodes, root included
	Blocks       uint64 // data blocks referenced by reachable inodes
	FreeInodes   uint64
	FreeBlocks   uint64
	OrphanInodes []common.Inum
	OrphanBlocks []common.Bnum
	Problems     []string
}

func (r *Report) Clean() bool {
	return len(r.OrphanInodes) == 0 && len(r.OrphanBlocks) == 0 && len(r.Problems) == 0
}

type checker struct {
	fsys   *Filesys
	r      *Report
	inodes map[common.Inum]bool
	blocks map[common.Bnum]bool
}

func (c *checker) problem(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	util.DPrintf(5, "fsck: %s\n", msg)
	c.r.Problems = append(c.r.Problems, msg)
}

func (c *checker) visit(ip *inode.Inode, path string) error {
	c.inodes[ip.Inum] = true
	for _, bn := range ip.Blocks {
		if bn == common.NULLBNUM {
			continue
		}
		if bn < common.DATASTART || bn >= c.fsys.super.MaxBnum() {
			c.problem("%s: block %d outside the data area", path, bn)
			continue
		}
		if c.blocks[bn] {
			c.problem("%s: block %d shared with another inode", path, bn)
			continue
		}
		c.blocks[bn] = true
		used, err := c.fsys.balloc.IsUsed(bn)
		if err != nil {
			return err
		}
		if !used {
			c.problem("%s: block %d in use but free in bitmap", path, bn)
		}
	}
	return nil
}

func childPath(dpath string, name string) string {
	if dpath == "/" {
		return "/" + name
	}
	return dpath + "/" + name
}

func (c *checker) walk(dinum common.Inum, dpath string) error {
	ents, err := c.fsys.dirs.List(dinum)
	if err != nil {
		return err
	}
	for _, e := range ents {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		path := childPath(dpath, e.Name)
		used, err := c.fsys.ialloc.IsUsed(uint64(e.Inum))
		if err != nil {
			return err
		}
		if !used || e.Mode == inode.Unused {
			c.problem("%s: entry names free inode %d", path, e.Inum)
			continue
		}
		if c.inodes[e.Inum] {
			c.problem("%s: inode %d linked more than once", path, e.Inum)
			continue
		}
		ip, err := c.fsys.itab.Read(e.Inum)
		if err != nil {
			return err
		}
		if err := c.visit(ip, path); err != nil {
			return err
		}
		if ip.IsDir() {
			parent, err := c.fsys.dirs.Parent(e.Inum)
			if err != nil {
				return err
			}
			if parent != dinum {
				c.problem("%s: \"..\" is %d, want %d", path, parent, dinum)
			}
			if err := c.walk(e.Inum, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// Fsck walks the tree from the root and cross-checks what it finds against
// both bitmaps. It only reads.
func (fsys *Filesys) Fsck() (*Report, error) {
	util.DPrintf(1, "Fsck\n")
	c := &checker{
		fsys:   fsys,
		r:      &Report{},
		inodes: make(map[common.Inum]bool),
		blocks: make(map[common.Bnum]bool),
	}
	root, err := fsys.itab.Read(common.ROOTINUM)
	if err != nil {
		return nil, err
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("root inode: %w", ErrNotDir)
	}
	if err := c.visit(root, "/"); err != nil {
		return nil, err
	}
	if err := c.walk(common.ROOTINUM, "/"); err != nil {
		return nil, err
	}

	for i := uint64(common.ROOTINUM); i < fsys.super.NInode; i++ {
		used, err := fsys.ialloc.IsUsed(i)
		if err != nil {
			return nil, err
		}
		if used && !c.inodes[common.Inum(i)] {
			c.r.OrphanInodes = append(c.r.OrphanInodes, common.Inum(i))
		}
	}
	for bn := common.DATASTART; bn < fsys.super.MaxBnum(); bn++ {
		used, err := fsys.balloc.IsUsed(bn)
		if err != nil {
			return nil, err
		}
		if used && !c.blocks[bn] {
			c.r.OrphanBlocks = append(c.r.OrphanBlocks, bn)
		}
	}

	c.r.Inodes = uint64(len(c.inodes))
	c.r.Blocks = uint64(len(c.blocks))
	if c.r.FreeInodes, err = fsys.ialloc.NumFree(); err != nil {
		return nil, err
	}
	if c.r.FreeBlocks, err = fsys.balloc.NumFree(); err != nil {
		return nil, err
	}
	return c.r, nil
}
