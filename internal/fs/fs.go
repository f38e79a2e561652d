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

// Package fs implements a fuse file system that mirrors an existing directory
// tree on the host. Each kernel inode ID is resolved to a real path through an
// inode table, the corresponding host syscall is made against that path, and
// the outcome is translated back into fuse attributes or an errno.
//
// The root of the mirrored tree is reported as fuseops.RootInodeID. Every
// other inode is reported under its host inode number.
package fs

import (
	"fmt"
	"io/ioutil"
	"log"
	"path/filepath"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/passthroughfs/internal/monitor"
	"github.com/jacobsa/timeutil"
	"golang.org/x/sys/unix"
)

type ServerConfig struct {
	// The real directory to mirror. It must exist. It is canonicalized (made
	// absolute, with symlinks resolved) before use.
	RealDir string

	// A clock used to compute attribute and entry expiration times handed to
	// the kernel. Defaults to the real clock.
	CacheClock timeutil.Clock

	// Metrics to record ops into. May be nil.
	Metrics *monitor.Metrics

	// A logger for unexpected host failures, i.e. those reported to the kernel
	// as EIO. Defaults to discarding.
	ErrorLogger *log.Logger

	// If set, a logger to trace every op and its outcome.
	DebugLogger *log.Logger
}

// The façade for a mounted passthrough tree. It owns the inode table, the
// metadata cache, and the canonical root for the lifetime of the mount.
//
// Exported methods are the op handlers; each fills in the op's response
// fields and returns nil or an errno, and is safe to call concurrently with
// any other.
type FileSystem struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	clock       timeutil.Clock
	errorLogger *log.Logger

	/////////////////////////
	// Constant data
	/////////////////////////

	// The canonical real path of the mirrored root.
	root string

	// The host inode number of root.
	rootHostID fuseops.InodeID

	/////////////////////////
	// Mutable state
	/////////////////////////

	inodes *InodeTable
	stats  *statCache
}

// Canonicalize the supplied directory: make it absolute and resolve symlinks.
func canonicalize(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(abs)
}

// Create a file system mirroring cfg.RealDir. Fails if the directory does not
// exist, is not a directory, or can't be canonicalized.
func NewFileSystem(cfg *ServerConfig) (*FileSystem, error) {
	root, err := canonicalize(cfg.RealDir)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %q: %w", cfg.RealDir, err)
	}

	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return nil, fmt.Errorf("stat %q: %w", root, err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return nil, fmt.Errorf("%q is not a directory", root)
	}

	fs := &FileSystem{
		clock:       cfg.CacheClock,
		errorLogger: cfg.ErrorLogger,
		root:        root,
		rootHostID:  fuseops.InodeID(st.Ino),
		inodes:      NewInodeTable(),
		stats:       newStatCache(cfg.Metrics),
	}

	if fs.clock == nil {
		fs.clock = timeutil.RealClock()
	}

	if fs.errorLogger == nil {
		fs.errorLogger = log.New(ioutil.Discard, "", 0)
	}

	// The kernel only ever addresses the root as RootInodeID, but register it
	// under its host number too.
	fs.inodes.Register(fs.rootHostID, root)
	fs.inodes.Register(fuseops.RootInodeID, root)

	return fs, nil
}

// Create a fuse server for a file system mirroring cfg.RealDir.
func NewServer(cfg *ServerConfig) (fuse.Server, error) {
	fs, err := NewFileSystem(cfg)
	if err != nil {
		return nil, err
	}

	return newFileSystemServer(fs, cfg.Metrics, cfg.DebugLogger), nil
}

// Return the canonical real path of the mirrored root.
func (fs *FileSystem) Root() string {
	return fs.root
}

////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////

// Translate a host error, logging it first if it is one we don't classify.
func (fs *FileSystem) hostErr(err error, format string, v ...interface{}) error {
	errno := toErrno(err)
	if errno == EIO {
		fs.errorLogger.Printf("%s: %v", fmt.Sprintf(format, v...), err)
	}

	return errno
}

// Return the path for the supplied inode, or ENOENT if the table has none.
func (fs *FileSystem) resolve(id fuseops.InodeID) (string, error) {
	p, ok := fs.inodes.Resolve(id)
	if !ok {
		return "", ENOENT
	}

	return p, nil
}

// Return the path of the child with the supplied name within the directory
// denoted by parent.
func (fs *FileSystem) resolveChild(
	parent fuseops.InodeID,
	name string) (string, error) {
	p, err := fs.resolve(parent)
	if err != nil {
		return "", err
	}

	// The kernel never sends names containing a separator, and "." and ".."
	// are resolved before reaching us.
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", EINVAL
	}

	return filepath.Join(p, name), nil
}

// Return the inode ID that should be reported for the supplied real path and
// host inode number.
func (fs *FileSystem) reportedID(path string, hostID uint64) fuseops.InodeID {
	if path == fs.root {
		return fuseops.RootInodeID
	}

	return fuseops.InodeID(hostID)
}

func (fs *FileSystem) expiration() time.Time {
	return fs.clock.Now().Add(AttributeCacheTTL)
}

// Register the object at the supplied path under its host inode number and
// fill in a child entry for it.
func (fs *FileSystem) fillEntry(
	e *fuseops.ChildInodeEntry,
	path string,
	st *unix.Stat_t) {
	id := fs.reportedID(path, st.Ino)
	e.Child = id

	// A non-root object whose host number collides with RootInodeID can't be
	// registered without hiding the root.
	if id == fuseops.RootInodeID && path != fs.root {
		fs.errorLogger.Printf("%q has host inode %v; not registering", path, id)
	} else {
		e.Generation = fs.inodes.Register(id, path)
	}

	e.Attributes = NewAttributes(st, id).InodeAttributes()
	e.AttributesExpiration = fs.expiration()
	e.EntryExpiration = e.AttributesExpiration
}

// Invalidate cached metadata for a path whose directory entry changed, along
// with its parent whose mtime and link count changed with it.
func (fs *FileSystem) invalidateEntry(path string) {
	fs.stats.InvalidateTree(path)
	fs.stats.Invalidate(filepath.Dir(path))
}
