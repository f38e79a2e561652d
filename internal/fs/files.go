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
	"io"
	"os"

	"github.com/jacobsa/fuse/fuseops"
	"golang.org/x/sys/unix"
)

////////////////////////////////////////////////////////////////////////
// Files
////////////////////////////////////////////////////////////////////////

// Handles carry no state. Each read or write opens the real file afresh.
func (fs *FileSystem) OpenFile(
	ctx context.Context,
	op *fuseops.OpenFileOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	if _, err := lstat(p); err != nil {
		return fs.hostErr(err, "OpenFile(%q)", p)
	}

	op.Handle = 0
	return nil
}

func (fs *FileSystem) ReadFile(
	ctx context.Context,
	op *fuseops.ReadFileOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	if op.Offset < 0 {
		return EIO
	}

	f, err := os.Open(p)
	if err != nil {
		return fs.hostErr(err, "Open(%q)", p)
	}

	defer f.Close()

	// Reading past the end is a short read, not an error.
	op.BytesRead, err = f.ReadAt(op.Dst, op.Offset)
	if err == io.EOF {
		err = nil
	}

	if err != nil {
		return fs.hostErr(err, "ReadAt(%q)", p)
	}

	return nil
}

func (fs *FileSystem) WriteFile(
	ctx context.Context,
	op *fuseops.WriteFileOp) error {
	p, err := fs.resolve(op.Inode)
	if err != nil {
		return err
	}

	if op.Offset < 0 {
		return EIO
	}

	f, err := os.OpenFile(p, os.O_WRONLY, 0)
	if err != nil {
		return fs.hostErr(err, "Open(%q)", p)
	}

	defer f.Close()
	defer fs.stats.Invalidate(p)

	if _, err := f.WriteAt(op.Data, op.Offset); err != nil {
		return fs.hostErr(err, "WriteAt(%q)", p)
	}

	return nil
}

// Create a new regular file, failing with EEXIST if the name is taken. The new
// file carries exactly the requested permission bits.
func (fs *FileSystem) CreateFile(
	ctx context.Context,
	op *fuseops.CreateFileOp) error {
	p, err := fs.resolveChild(op.Parent, op.Name)
	if err != nil {
		return err
	}

	perm := fileModeToPerm(op.Mode)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(perm&0777))
	if err != nil {
		return fs.hostErr(err, "Create(%q)", p)
	}

	defer f.Close()
	fs.invalidateEntry(p)

	// Apply the requested bits exactly, regardless of our own umask.
	if err := unix.Fchmod(int(f.Fd()), perm); err != nil {
		return fs.hostErr(err, "Fchmod(%q)", p)
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return fs.hostErr(err, "Fstat(%q)", p)
	}

	fs.fillEntry(&op.Entry, p, &st)
	op.Handle = 0
	return nil
}

// Writes go straight to the host, so there is nothing to flush.
func (fs *FileSystem) FlushFile(
	ctx context.Context,
	op *fuseops.FlushFileOp) error {
	return nil
}

func (fs *FileSystem) SyncFile(
	ctx context.Context,
	op *fuseops.SyncFileOp) error {
	return nil
}

func (fs *FileSystem) ReleaseFileHandle(
	ctx context.Context,
	op *fuseops.ReleaseFileHandleOp) error {
	return nil
}
