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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/syncutil"
)

const numTableShards = 32

// A concurrent map from inode ID to the canonical real path it denotes.
// Entries are partitioned into shards by ID, so callers never hold a lock
// that spans the whole table.
//
// Registration is last-writer-wins. Each ID carries a generation number that
// is bumped whenever the ID comes to denote a different path than it did
// before, including after it was forgotten. The kernel uses this to tell a
// reused inode number apart from the file it used to name.
//
// Safe for concurrent access.
type InodeTable struct {
	shards [numTableShards]*tableShard
}

type tableEntry struct {
	// The canonical real path, or the empty string if the ID was forgotten. A
	// forgotten entry is kept so that its generation survives reuse.
	path       string
	generation fuseops.GenerationNumber
}

type tableShard struct {
	index int

	mu syncutil.InvariantMutex

	// INVARIANT: For all keys k, shardIndex(k) == index
	// INVARIANT: For all values v, v.path == "" or v.path is absolute and clean
	//
	// GUARDED_BY(mu)
	entries map[fuseops.InodeID]tableEntry
}

func NewInodeTable() *InodeTable {
	t := &InodeTable{}
	for i := range t.shards {
		s := &tableShard{
			index:   i,
			entries: make(map[fuseops.InodeID]tableEntry),
		}

		s.mu = syncutil.NewInvariantMutex(s.checkInvariants)
		t.shards[i] = s
	}

	return t
}

func shardIndex(id fuseops.InodeID) int {
	return int(uint64(id) % numTableShards)
}

func (t *InodeTable) shard(id fuseops.InodeID) *tableShard {
	return t.shards[shardIndex(id)]
}

func (s *tableShard) checkInvariants() {
	for id, e := range s.entries {
		// INVARIANT: For all keys k, shardIndex(k) == index
		if shardIndex(id) != s.index {
			panic(fmt.Sprintf("ID %v in shard %d", id, s.index))
		}

		// INVARIANT: For all values v, v.path == "" or v.path is absolute and clean
		if e.path != "" && (!filepath.IsAbs(e.path) || filepath.Clean(e.path) != e.path) {
			panic(fmt.Sprintf("Non-canonical path for ID %v: %q", id, e.path))
		}
	}
}

////////////////////////////////////////////////////////////////////////
// Public interface
////////////////////////////////////////////////////////////////////////

// Return the path registered for the supplied ID, or !ok if there is none.
func (t *InodeTable) Resolve(id fuseops.InodeID) (path string, ok bool) {
	s := t.shard(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entries[id]
	if e.path == "" {
		return "", false
	}

	return e.path, true
}

// Return the generation that should be reported alongside the supplied ID.
func (t *InodeTable) generation(id fuseops.InodeID) fuseops.GenerationNumber {
	s := t.shard(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.entries[id].generation
}

// Record that the supplied ID denotes the supplied path, overwriting any
// previous path. Return the entry's generation after the update.
//
// REQUIRES: path is absolute and clean
func (t *InodeTable) Register(
	id fuseops.InodeID,
	path string) fuseops.GenerationNumber {
	s := t.shard(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if ok && e.path != path {
		e.generation++
	}

	e.path = path
	s.entries[id] = e

	return e.generation
}

// Drop the entry for the supplied ID, but only if it still points at the
// supplied path. A concurrent re-registration elsewhere is left alone.
func (t *InodeTable) Forget(id fuseops.InodeID, path string) {
	s := t.shard(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.path != path {
		return
	}

	e.path = ""
	s.entries[id] = e
}

// Rewrite every entry at or below oldPath so that it lives at or below
// newPath instead, following a rename of oldPath. Shards are updated one at a
// time; the rewrite as a whole is not atomic.
func (t *InodeTable) Rebase(oldPath, newPath string) {
	prefix := oldPath + string(filepath.Separator)
	for _, s := range t.shards {
		s.rebase(oldPath, prefix, newPath)
	}
}

func (s *tableShard) rebase(oldPath, prefix, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		switch {
		case e.path == oldPath:
			e.path = newPath

		case strings.HasPrefix(e.path, prefix):
			e.path = filepath.Join(newPath, e.path[len(prefix):])

		default:
			continue
		}

		s.entries[id] = e
	}
}
