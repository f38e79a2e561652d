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
	"path/filepath"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/sys/unix"
)

////////////////////////////////////////////////////////////////////////
// Directories
////////////////////////////////////////////////////////////////////////

// No handle state is kept; ReadDir lists the real directory afresh.
func (fs *FileSystem) OpenDir(
	ctx context.Context,
	op *fuseops.OpenDirOp) error {
	_, err := fs.resolve(op.Inode)
	return err
}

// Return the entries of the directory at the supplied real path, in the order
// ReadDir serves them: "." and ".." at offsets 1 and 2, then each child with
// its own host inode number at offsets 3 and up. Children that disappear
// while listing are skipped.
func (fs *FileSystem) listDir(
	id fuseops.InodeID,
	p string) ([]fuseutil.Dirent, error) {
	children, err := os.ReadDir(p)
	if err != nil {
		return nil, err
	}

	parentID := fuseops.InodeID(fuseops.RootInodeID)
	if p != fs.root {
		parent := filepath.Dir(p)
		if st, err := lstat(parent); err == nil {
			parentID = fs.reportedID(parent, st.Ino)
		}
	}

	entries := make([]fuseutil.Dirent, 0, len(children)+2)
	entries = append(entries,
		fuseutil.Dirent{Offset: 1, Inode: id, Name: ".", Type: fuseutil.DT_Directory},
		fuseutil.Dirent{Offset: 2, Inode: parentID, Name: "..", Type: fuseutil.DT_Directory},
	)

	for _, c := range children {
		var st unix.Stat_t
		if err := unix.Lstat(filepath.Join(p, c.Name()), &st); err != nil {
			continue
		}

		entries = append(entries, fuseutil.Dirent{
			Offset: fuseops.DirOffset(len(entries) + 1),
			Inode:  fuseops.InodeID(st.Ino),
			Name:   c.Name(),
			Type:   kindOf(st.Mode),
		})
	}

	return entries, nil
}

// Serve entries starting after op.Offset, the offset of the last entry the
// kernel consumed. An offset at or past the end yields no entries.
func (fs *FileSystem) ReadDir(
	ctx context.Context,
	op *fuseops.ReadDirOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	entries, err := fs.listDir(op.Inode, p)
	if err != nil {
		return fs.hostErr(err, "ReadDir(%q)", p)
	}

	if op.Offset >= fuseops.DirOffset(len(entries)) {
		return nil
	}

	for _, e := range entries[op.Offset:] {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if n == 0 {
			break
		}

		op.BytesRead += n
	}

	return nil
}

func (fs *FileSystem) ReleaseDirHandle(
	ctx context.Context,
	op *fuseops.ReleaseDirHandleOp) error {
	return nil
}

func (fs *FileSystem) MkDir(
	ctx context.Context,
	op *fuseops.MkDirOp) error {
	p, err := fs.resolveChild(op.Parent, op.Name)
	if err != nil {
		return err
	}

	perm := fileModeToPerm(op.Mode)
	if err := unix.Mkdir(p, perm); err != nil {
		return fs.hostErr(err, "Mkdir(%q)", p)
	}

	fs.invalidateEntry(p)

	// Apply the requested bits exactly, regardless of our own umask.
	if err := unix.Chmod(p, perm); err != nil {
		return fs.hostErr(err, "Chmod(%q)", p)
	}

	st, err := lstat(p)
	if err != nil {
		return fs.hostErr(err, "MkDir(%q)", p)
	}

	fs.fillEntry(&op.Entry, p, &st)
	return nil
}

func (fs *FileSystem) RmDir(
	ctx context.Context,
	op *fuseops.RmDirOp) error {
	p, err := fs.resolveChild(op.Parent, op.Name)
	if err != nil {
		return err
	}

	st, statErr := lstat(p)

	if err := unix.Rmdir(p); err != nil {
		return fs.hostErr(err, "Rmdir(%q)", p)
	}

	if statErr == nil {
		fs.inodes.Forget(fuseops.InodeID(st.Ino), p)
	}

	fs.invalidateEntry(p)
	return nil
}
