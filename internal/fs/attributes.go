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
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/sys/unix"
)

// How long the kernel may trust an attribute record or a name->inode entry
// before asking again.
const AttributeCacheTTL = time.Second

// The attribute record for a single reply, derived from a host stat snapshot.
// Records are never stored; build a fresh one for each reply.
type Attributes struct {
	// The inode ID to report. Supplied by the caller, not taken from the
	// snapshot, since the root is reported as fuseops.RootInodeID.
	Inode fuseops.InodeID

	// One of DT_Directory, DT_Link, or DT_File.
	Kind fuseutil.DirentType

	Size      uint64
	Blocks    uint64
	BlockSize uint32

	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Crtime time.Time

	// The low twelve bits of st_mode.
	//
	// INVARIANT: Perm&^07777 == 0
	Perm uint32

	Nlink uint32
	Uid   uint32
	Gid   uint32
	Rdev  uint64
}

// Return the dirent type for the file type bits of st_mode. Anything that is
// neither a directory nor a symlink is reported as a regular file.
func kindOf(mode uint32) fuseutil.DirentType {
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return fuseutil.DT_Directory

	case unix.S_IFLNK:
		return fuseutil.DT_Link

	default:
		return fuseutil.DT_File
	}
}

func timespecToTime(ts unix.Timespec) time.Time {
	return time.Unix(ts.Unix())
}

// Build the attribute record for the supplied snapshot, reporting the given
// inode ID.
func NewAttributes(st *unix.Stat_t, id fuseops.InodeID) Attributes {
	return Attributes{
		Inode:     id,
		Kind:      kindOf(st.Mode),
		Size:      uint64(st.Size),
		Blocks:    uint64(st.Blocks),
		BlockSize: uint32(st.Blksize),
		Atime:     timespecToTime(st.Atim),
		Mtime:     timespecToTime(st.Mtim),
		Ctime:     timespecToTime(st.Ctim),
		Crtime:    time.Unix(0, 0),
		Perm:      st.Mode & 07777,
		Nlink:     uint32(st.Nlink),
		Uid:       st.Uid,
		Gid:       st.Gid,
		Rdev:      uint64(st.Rdev),
	}
}

// Convert permission bits in st_mode form to an os.FileMode.
func permToFileMode(perm uint32) (m os.FileMode) {
	m = os.FileMode(perm & 0777)

	if perm&unix.S_ISUID != 0 {
		m |= os.ModeSetuid
	}

	if perm&unix.S_ISGID != 0 {
		m |= os.ModeSetgid
	}

	if perm&unix.S_ISVTX != 0 {
		m |= os.ModeSticky
	}

	return
}

// The inverse of permToFileMode. Type bits in m are ignored.
func fileModeToPerm(m os.FileMode) (perm uint32) {
	perm = uint32(m.Perm())

	if m&os.ModeSetuid != 0 {
		perm |= unix.S_ISUID
	}

	if m&os.ModeSetgid != 0 {
		perm |= unix.S_ISGID
	}

	if m&os.ModeSticky != 0 {
		perm |= unix.S_ISVTX
	}

	return
}

// Return the mode that the kernel should see.
func (a Attributes) Mode() (m os.FileMode) {
	m = permToFileMode(a.Perm)

	switch a.Kind {
	case fuseutil.DT_Directory:
		m |= os.ModeDir

	case fuseutil.DT_Link:
		m |= os.ModeSymlink
	}

	return
}

// Convert to the form carried by fuse replies. The inode ID travels in the
// reply alongside the attributes, and the transport derives the block count
// and preferred I/O size itself, so those three are not carried across.
func (a Attributes) InodeAttributes() fuseops.InodeAttributes {
	return fuseops.InodeAttributes{
		Size:   a.Size,
		Nlink:  a.Nlink,
		Mode:   a.Mode(),
		Atime:  a.Atime,
		Mtime:  a.Mtime,
		Ctime:  a.Ctime,
		Crtime: a.Crtime,
		Uid:    a.Uid,
		Gid:    a.Gid,
		Rdev:   uint32(a.Rdev),
	}
}
