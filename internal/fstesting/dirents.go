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

package fstesting

import (
	"encoding/binary"
	"fmt"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
)

// Decode a buffer filled by fuseutil.WriteDirent. Each record has the layout
// of fuse_dirent in host order, padded to an eight byte boundary.
func ParseDirents(buf []byte) (entries []fuseutil.Dirent, err error) {
	const alignment = 8
	const nameOffset = 8 + 8 + 4 + 4

	for len(buf) > 0 {
		if len(buf) < nameOffset {
			err = fmt.Errorf("short header: %d bytes", len(buf))
			return
		}

		e := fuseutil.Dirent{
			Inode:  fuseops.InodeID(binary.NativeEndian.Uint64(buf[0:])),
			Offset: fuseops.DirOffset(binary.NativeEndian.Uint64(buf[8:])),
			Type:   fuseutil.DirentType(binary.NativeEndian.Uint32(buf[20:])),
		}

		nameLen := int(binary.NativeEndian.Uint32(buf[16:]))
		recLen := nameOffset + nameLen
		if recLen%alignment != 0 {
			recLen += alignment - recLen%alignment
		}

		if len(buf) < recLen {
			err = fmt.Errorf("short record for entry at offset %v", e.Offset)
			return
		}

		e.Name = string(buf[nameOffset : nameOffset+nameLen])
		entries = append(entries, e)
		buf = buf[recLen:]
	}

	return
}

// Return the names of the supplied entries, in order.
func Names(entries []fuseutil.Dirent) (names []string) {
	for _, e := range entries {
		names = append(names, e.Name)
	}

	return
}
