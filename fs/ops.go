package fs

import (
	"fmt"
	"strings"

	"github.com/mit-pdos/blockfs/common"
	"github.com/mit-pdos/blockfs/dir"
	"github.com/mit-pdos/blockfs/disk"
	"github.com/mit-pdos/blockfs/inode"
	"github.com/mit-pdos/blockfs/util"
)

func (fsys *Filesys) Mkdir(path string) error {
	util.DPrintf(1, "Mkdir: %s\n", path)
	pinum, name, err := fsys.parentDir(path)
	if err != nil {
		return err
	}
	if err := fsys.checkAbsent(pinum, name, path); err != nil {
		return err
	}
	inum, err := fsys.allocInode()
	if err != nil {
		return err
	}
	bn, err := fsys.allocBlock()
	if err != nil {
		fsys.undo(inum, common.NULLBNUM)
		return err
	}
	err = fsys.itab.Write(inode.MkDir(inum, bn))
	if err == nil {
		err = fsys.disk().Write(bn, dir.MkDirBlock(inum, pinum))
	}
	if err == nil {
		err = fsys.dirs.Insert(pinum, inum, name)
	}
	if err != nil {
		fsys.undo(inum, bn)
		return err
	}
	return nil
}

func (fsys *Filesys) Touch(path string) error {
	util.DPrintf(1, "Touch: %s\n", path)
	pinum, name, err := fsys.parentDir(path)
	if err != nil {
		return err
	}
	if err := fsys.checkAbsent(pinum, name, path); err != nil {
		return err
	}
	inum, err := fsys.allocInode()
	if err != nil {
		return err
	}
	err = fsys.itab.Write(inode.MkFile(inum))
	if err == nil {
		err = fsys.dirs.Insert(pinum, inum, name)
	}
	if err != nil {
		fsys.undo(inum, common.NULLBNUM)
		return err
	}
	return nil
}

func (fsys *Filesys) getFile(path string) (*inode.Inode, error) {
	inum, err := fsys.Resolve(path)
	if err != nil {
		return nil, err
	}
	ip, err := fsys.itab.Read(inum)
	if err != nil {
		return nil, err
	}
	if !ip.IsFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFile)
	}
	return ip, nil
}

// Write replaces the file's content. Files hold at most one block; bytes
// past disk.BlockSize are dropped. It returns the number of bytes stored.
func (fsys *Filesys) Write(path string, content string) (uint64, error) {
	util.DPrintf(1, "Write: %s %d bytes\n", path, len(content))
	ip, err := fsys.getFile(path)
	if err != nil {
		return 0, err
	}
	var fresh common.Bnum
	if ip.Blocks[0] == common.NULLBNUM {
		bn, err := fsys.allocBlock()
		if err != nil {
			return 0, err
		}
		ip.Blocks[0] = bn
		fresh = bn
	}
	n := util.Min(uint64(len(content)), disk.BlockSize)
	blk := make(disk.Block, disk.BlockSize)
	copy(blk, content[:n])
	err = fsys.disk().Write(ip.Blocks[0], blk)
	if err == nil {
		ip.Size = n
		err = fsys.itab.Write(ip)
	}
	if err != nil {
		fsys.undo(common.NULLINUM, fresh)
		return 0, err
	}
	return n, nil
}

func (fsys *Filesys) readContent(ip *inode.Inode) (string, error) {
	if ip.Size == 0 || ip.Blocks[0] == common.NULLBNUM {
		return "", nil
	}
	blk, err := fsys.disk().Read(ip.Blocks[0])
	if err != nil {
		return "", err
	}
	return string(blk[:util.Min(ip.Size, disk.BlockSize)]), nil
}

func (fsys *Filesys) Cat(path string) (string, error) {
	util.DPrintf(1, "Cat: %s\n", path)
	ip, err := fsys.getFile(path)
	if err != nil {
		return "", err
	}
	return fsys.readContent(ip)
}

// Rm removes a file or an empty directory.
func (fsys *Filesys) Rm(path string) error {
	util.DPrintf(1, "Rm: %s\n", path)
	if path == "/" {
		return ErrRemoveRoot
	}
	inum, err := fsys.Resolve(path)
	if err != nil {
		return err
	}
	if inum == common.ROOTINUM {
		return ErrRemoveRoot
	}
	pinum, name, err := fsys.parentDir(path)
	if err != nil {
		return err
	}
	ip, err := fsys.itab.Read(inum)
	if err != nil {
		return err
	}
	if ip.IsDir() {
		n, err := fsys.dirs.NumLive(inum)
		if err != nil {
			return err
		}
		if n > 2 {
			return fmt.Errorf("%s: %w", path, ErrNotEmpty)
		}
	}
	for _, bn := range ip.Blocks {
		if bn != common.NULLBNUM {
			if err := fsys.freeBlock(bn); err != nil {
				return err
			}
		}
	}
	if err := fsys.freeInode(inum); err != nil {
		return err
	}
	return fsys.dirs.Remove(pinum, name)
}

// Cp copies a file into a new file at dst. The copy gets its own inode and
// block.
func (fsys *Filesys) Cp(src string, dst string) error {
	util.DPrintf(1, "Cp: %s %s\n", src, dst)
	ip, err := fsys.getFile(src)
	if err != nil {
		return err
	}
	content, err := fsys.readContent(ip)
	if err != nil {
		return err
	}
	if err := fsys.Touch(dst); err != nil {
		return err
	}
	if ip.Blocks[0] == common.NULLBNUM {
		return nil
	}
	if _, err := fsys.Write(dst, content); err != nil {
		if rerr := fsys.Rm(dst); rerr != nil {
			util.DPrintf(0, "Cp: cleanup %s: %v\n", dst, rerr)
		}
		return err
	}
	return nil
}

// Mv relinks src under dst. The inode and its blocks stay where they are;
// a moved directory has its ".." pointed at the new parent.
func (fsys *Filesys) Mv(src string, dst string) error {
	util.DPrintf(1, "Mv: %s %s\n", src, dst)
	inum, err := fsys.Resolve(src)
	if err != nil {
		return err
	}
	if inum == common.ROOTINUM {
		return fmt.Errorf("cannot move root: %w", ErrInvalidPath)
	}
	spinum, sname, err := fsys.parentDir(src)
	if err != nil {
		return err
	}
	dpinum, dname, err := fsys.parentDir(dst)
	if err != nil {
		return err
	}
	if err := fsys.checkAbsent(dpinum, dname, dst); err != nil {
		return err
	}
	ip, err := fsys.itab.Read(inum)
	if err != nil {
		return err
	}
	if ip.IsDir() {
		if err := fsys.checkNotUnder(dpinum, inum, dst); err != nil {
			return err
		}
	}
	if err := fsys.dirs.Insert(dpinum, inum, dname); err != nil {
		return err
	}
	if err := fsys.dirs.Remove(spinum, sname); err != nil {
		return err
	}
	if ip.IsDir() {
		return fsys.dirs.SetParent(inum, dpinum)
	}
	return nil
}

// checkNotUnder fails if dinum is inum or one of its descendants, following
// ".." up to the root.
func (fsys *Filesys) checkNotUnder(dinum common.Inum, inum common.Inum, path string) error {
	cur := dinum
	for i := uint64(0); i < fsys.super.NInode; i++ {
		if cur == inum {
			return fmt.Errorf("%s: cannot move a directory into itself: %w", path, ErrInvalidPath)
		}
		if cur == common.ROOTINUM {
			return nil
		}
		p, err := fsys.dirs.Parent(cur)
		if err != nil {
			return err
		}
		cur = p
	}
	return fmt.Errorf("%s: directory loop", path)
}

// Ls lists a directory, or returns a single entry when path names a file.
func (fsys *Filesys) Ls(path string) ([]dir.Entry, error) {
	util.DPrintf(1, "Ls: %s\n", path)
	inum, err := fsys.Resolve(path)
	if err != nil {
		return nil, err
	}
	ip, err := fsys.itab.Read(inum)
	if err != nil {
		return nil, err
	}
	if !ip.IsDir() {
		name := path[strings.LastIndex(path, "/")+1:]
		return []dir.Entry{{Name: name, Inum: inum, Mode: ip.Mode}}, nil
	}
	return fsys.dirs.List(inum)
}

// Cd moves the session to the directory at path.
func (fsys *Filesys) Cd(s *Session, path string) error {
	util.DPrintf(1, "Cd: %s\n", path)
	inum, err := fsys.Resolve(path)
	if err != nil {
		return err
	}
	ip, err := fsys.itab.Read(inum)
	if err != nil {
		return err
	}
	if !ip.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDir)
	}
	s.Cwd = inum
	s.Path = path
	return nil
}

func (fsys *Filesys) Stat(path string) (*inode.Inode, error) {
	inum, err := fsys.Resolve(path)
	if err != nil {
		return nil, err
	}
	return fsys.itab.Read(inum)
}
