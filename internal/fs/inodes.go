// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fs

import (
	"context"
	"os"

	"github.com/jacobsa/fuse/fuseops"
	"golang.org/x/sys/unix"
)

////////////////////////////////////////////////////////////////////////
// Inodes
////////////////////////////////////////////////////////////////////////

func (fs *FileSystem) LookUpInode(
	ctx context.Context,
	op *fuseops.LookUpInodeOp) error {
	p, err := fs.resolveChild(op.Parent, op.Name)
	if err != nil {
		return err
	}

	st, err := fs.stats.GetOrFetch(p)
	if err != nil {
		return fs.hostErr(err, "LookUpInode(%q)", p)
	}

	fs.fillEntry(&op.Entry, p, &st)
	return nil
}

func (fs *FileSystem) GetInodeAttributes(
	ctx context.Context,
	op *fuseops.GetInodeAttributesOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	st, err := fs.stats.GetOrFetch(p)
	if err != nil {
		return fs.hostErr(err, "GetInodeAttributes(%q)", p)
	}

	op.Attributes = NewAttributes(&st, op.Inode).InodeAttributes()
	op.AttributesExpiration = fs.expiration()
	return nil
}

// Apply truncation, mode, ownership, and time changes to the real path, then
// report fresh attributes.
func (fs *FileSystem) SetInodeAttributes(
	ctx context.Context,
	op *fuseops.SetInodeAttributesOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	// Whatever happens below, the cached snapshot may be out of date.
	defer fs.stats.Invalidate(p)

	if op.Size != nil {
		if err := unix.Truncate(p, int64(*op.Size)); err != nil {
			return fs.hostErr(err, "Truncate(%q)", p)
		}
	}

	if op.Mode != nil {
		if err := unix.Chmod(p, fileModeToPerm(*op.Mode)); err != nil {
			return fs.hostErr(err, "Chmod(%q)", p)
		}
	}

	if op.Uid != nil || op.Gid != nil {
		uid, gid := -1, -1
		if op.Uid != nil {
			uid = int(*op.Uid)
		}

		if op.Gid != nil {
			gid = int(*op.Gid)
		}

		if err := unix.Lchown(p, uid, gid); err != nil {
			return fs.hostErr(err, "Lchown(%q)", p)
		}
	}

	if op.Atime != nil || op.Mtime != nil {
		ts := []unix.Timespec{
			{Nsec: unix.UTIME_OMIT},
			{Nsec: unix.UTIME_OMIT},
		}

		if op.Atime != nil {
			ts[0] = unix.NsecToTimespec(op.Atime.UnixNano())
		}

		if op.Mtime != nil {
			ts[1] = unix.NsecToTimespec(op.Mtime.UnixNano())
		}

		err := unix.UtimesNanoAt(unix.AT_FDCWD, p, ts, unix.AT_SYMLINK_NOFOLLOW)
		if err != nil {
			return fs.hostErr(err, "UtimesNanoAt(%q)", p)
		}
	}

	st, err := lstat(p)
	if err != nil {
		return fs.hostErr(err, "SetInodeAttributes(%q)", p)
	}

	op.Attributes = NewAttributes(&st, op.Inode).InodeAttributes()
	op.AttributesExpiration = fs.expiration()
	return nil
}

// Entries are only dropped when their path is removed, so the kernel's
// reference count carries no information we need.
func (fs *FileSystem) ForgetInode(
	ctx context.Context,
	op *fuseops.ForgetInodeOp) error {
	return nil
}

func (fs *FileSystem) BatchForget(
	ctx context.Context,
	op *fuseops.BatchForgetOp) error {
	for _, e := range op.Entries {
		err := fs.ForgetInode(ctx, &fuseops.ForgetInodeOp{
			Inode: e.Inode,
			N:     e.N,
		})

		if err != nil {
			return err
		}
	}

	return nil
}

func (fs *FileSystem) ReadSymlink(
	ctx context.Context,
	op *fuseops.ReadSymlinkOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	target, err := os.Readlink(p)
	if err != nil {
		return fs.hostErr(err, "Readlink(%q)", p)
	}

	op.Target = target
	return nil
}

// Report the capacity of the host file system containing the real root.
func (fs *FileSystem) StatFS(
	ctx context.Context,
	op *fuseops.StatFSOp) error {
	var st unix.Statfs_t
	if err := unix.Statfs(fs.root, &st); err != nil {
		return fs.hostErr(err, "Statfs(%q)", fs.root)
	}

	op.BlockSize = uint32(st.Frsize)
	op.Blocks = st.Blocks
	op.BlocksFree = st.Bfree
	op.BlocksAvailable = st.Bavail
	op.IoSize = uint32(st.Bsize)
	op.Inodes = st.Files
	op.InodesFree = st.Ffree
	return nil
}
