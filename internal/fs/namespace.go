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

	"github.com/jacobsa/fuse/fuseops"
	"golang.org/x/sys/unix"
)

////////////////////////////////////////////////////////////////////////
// Namespace
////////////////////////////////////////////////////////////////////////

func (fs *FileSystem) Unlink(
	ctx context.Context,
	op *fuseops.UnlinkOp) error {
	p, err := fs.resolveChild(op.Parent, op.Name)
	if err != nil {
		return err
	}

	st, statErr := lstat(p)

	if err := unix.Unlink(p); err != nil {
		return fs.hostErr(err, "Unlink(%q)", p)
	}

	if statErr == nil {
		fs.inodes.Forget(fuseops.InodeID(st.Ino), p)
	}

	fs.invalidateEntry(p)
	return nil
}

// Rename on the host, then move every table entry at or below the old path so
// that IDs the kernel already holds keep resolving.
func (fs *FileSystem) Rename(
	ctx context.Context,
	op *fuseops.RenameOp) error {
	oldPath, err := fs.resolveChild(op.OldParent, op.OldName)
	if err != nil {
		return err
	}

	newPath, err := fs.resolveChild(op.NewParent, op.NewName)
	if err != nil {
		return err
	}

	// Note what, if anything, the rename is about to replace.
	victim, victimErr := lstat(newPath)
	moved, movedErr := lstat(oldPath)

	if err := unix.Rename(oldPath, newPath); err != nil {
		return fs.hostErr(err, "Rename(%q, %q)", oldPath, newPath)
	}

	if oldPath == newPath {
		return nil
	}

	if victimErr == nil && (movedErr != nil || victim.Ino != moved.Ino) {
		fs.inodes.Forget(fuseops.InodeID(victim.Ino), newPath)
	}

	fs.inodes.Rebase(oldPath, newPath)

	fs.invalidateEntry(oldPath)
	fs.invalidateEntry(newPath)

	// The moved object may not have been looked up yet.
	if st, err := lstat(newPath); err == nil {
		id := fs.reportedID(newPath, st.Ino)
		if id != fuseops.RootInodeID {
			fs.inodes.Register(id, newPath)
		}
	}

	return nil
}
