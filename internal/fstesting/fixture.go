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

// Package fstesting contains helpers shared by tests that drive a passthrough
// file system directly through its op handlers, without mounting it.
package fstesting

import (
	"context"
	"io/ioutil"
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/jacobsa/ogletest"
	"github.com/jacobsa/passthroughfs/internal/fs"
	"github.com/jacobsa/timeutil"
)

// A struct that implements common behavior needed by file system tests. Use
// it as an anonymous member of your test fixture, calling its SetUp method
// from your SetUp method and its TearDown method from your TearDown method.
//
// The real directory starts out empty. Tests populate it directly with the
// os package, which the file system sees on its next lookup.
type FileSystemTest struct {
	Ctx context.Context

	// A clock with a fixed initial time, used for expiration times.
	Clock timeutil.SimulatedClock

	// The canonical real directory being mirrored.
	RealDir string

	FS *fs.FileSystem

	// Issues ops against FS.
	Client Client
}

func (t *FileSystemTest) SetUp(ti *ogletest.TestInfo) {
	var err error

	t.Ctx = ti.Ctx
	t.Clock.SetTime(time.Date(2012, 8, 15, 22, 56, 0, 0, time.Local))

	dir, err := ioutil.TempDir("", "passthroughfs_test")
	if err != nil {
		panic(err)
	}

	t.FS, err = fs.NewFileSystem(&fs.ServerConfig{
		RealDir:    dir,
		CacheClock: &t.Clock,
	})

	if err != nil {
		panic(err)
	}

	t.RealDir = t.FS.Root()
	t.Client = Client{Ctx: t.Ctx, FS: t.FS}
}

func (t *FileSystemTest) TearDown() {
	if err := os.RemoveAll(t.RealDir); err != nil {
		panic(err)
	}
}

////////////////////////////////////////////////////////////////////////
// Client
////////////////////////////////////////////////////////////////////////

// Helpers that issue ops directly to a file system's handlers and decode the
// replies.
type Client struct {
	Ctx context.Context
	FS  *fs.FileSystem
}

// Look up the child with the supplied name within parent.
func (c *Client) LookUp(
	parent fuseops.InodeID,
	name string) (e fuseops.ChildInodeEntry, err error) {
	op := &fuseops.LookUpInodeOp{
		Parent: parent,
		Name:   name,
	}

	err = c.FS.LookUpInode(c.Ctx, op)
	e = op.Entry
	return
}

// Look up each of the supplied names in turn, starting at the root.
func (c *Client) Walk(names ...string) (id fuseops.InodeID, err error) {
	id = fuseops.RootInodeID
	for _, name := range names {
		var e fuseops.ChildInodeEntry
		if e, err = c.LookUp(id, name); err != nil {
			return
		}

		id = e.Child
	}

	return
}

func (c *Client) GetAttributes(
	id fuseops.InodeID) (attrs fuseops.InodeAttributes, err error) {
	op := &fuseops.GetInodeAttributesOp{
		Inode: id,
	}

	err = c.FS.GetInodeAttributes(c.Ctx, op)
	attrs = op.Attributes
	return
}

// Read the directory denoted by id starting after the supplied offset, using a
// buffer of the supplied size.
func (c *Client) ReadDir(
	id fuseops.InodeID,
	offset fuseops.DirOffset,
	size int) (entries []fuseutil.Dirent, err error) {
	op := &fuseops.ReadDirOp{
		Inode:  id,
		Offset: offset,
		Dst:    make([]byte, size),
	}

	if err = c.FS.ReadDir(c.Ctx, op); err != nil {
		return
	}

	entries, err = ParseDirents(op.Dst[:op.BytesRead])
	return
}

// Read the whole directory denoted by id, issuing as many reads as needed with
// a small buffer and resuming from the last offset returned each time.
func (c *Client) ReadAllDir(
	id fuseops.InodeID) (entries []fuseutil.Dirent, err error) {
	var offset fuseops.DirOffset
	for {
		var batch []fuseutil.Dirent
		if batch, err = c.ReadDir(id, offset, 128); err != nil {
			return
		}

		if len(batch) == 0 {
			return
		}

		entries = append(entries, batch...)
		offset = batch[len(batch)-1].Offset
	}
}

// Read up to size bytes at the supplied offset from the file denoted by id.
func (c *Client) ReadFile(
	id fuseops.InodeID,
	offset int64,
	size int) (data []byte, err error) {
	op := &fuseops.ReadFileOp{
		Inode:  id,
		Offset: offset,
		Size:   int64(size),
		Dst:    make([]byte, size),
	}

	if err = c.FS.ReadFile(c.Ctx, op); err != nil {
		return
	}

	data = op.Dst[:op.BytesRead]
	return
}

func (c *Client) WriteFile(
	id fuseops.InodeID,
	offset int64,
	data []byte) error {
	op := &fuseops.WriteFileOp{
		Inode:  id,
		Offset: offset,
		Data:   data,
	}

	return c.FS.WriteFile(c.Ctx, op)
}
