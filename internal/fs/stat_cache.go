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

	"github.com/jacobsa/passthroughfs/internal/monitor"
	"github.com/jacobsa/syncutil"
	"golang.org/x/sys/unix"
)

// A map from canonical real path to the most recently observed stat snapshot
// for that path, used to avoid repeated lstat calls for lookups and getattrs.
//
// Entries do not expire on their own. Handlers that mutate the real tree
// invalidate the paths they touch; changes made to the real tree by other
// processes are not noticed.
//
// Safe for concurrent access.
type statCache struct {
	/////////////////////////
	// Dependencies
	/////////////////////////

	lstat   func(path string) (unix.Stat_t, error)
	metrics *monitor.Metrics

	/////////////////////////
	// Mutable state
	/////////////////////////

	mu syncutil.InvariantMutex

	// INVARIANT: For all keys k, k is absolute and clean
	//
	// GUARDED_BY(mu)
	entries map[string]unix.Stat_t
}

func lstat(path string) (st unix.Stat_t, err error) {
	err = unix.Lstat(path, &st)
	return
}

func newStatCache(metrics *monitor.Metrics) *statCache {
	c := &statCache{
		lstat:   lstat,
		metrics: metrics,
		entries: make(map[string]unix.Stat_t),
	}

	c.mu = syncutil.NewInvariantMutex(c.checkInvariants)
	return c
}

func (c *statCache) checkInvariants() {
	// INVARIANT: For all keys k, k is absolute and clean
	for k := range c.entries {
		if !filepath.IsAbs(k) || filepath.Clean(k) != k {
			panic(fmt.Sprintf("Non-canonical key: %q", k))
		}
	}
}

// LOCKS_EXCLUDED(c.mu)
func (c *statCache) lookUp(path string) (st unix.Stat_t, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st, ok = c.entries[path]
	return
}

// Return the cached snapshot for the supplied path, fetching and storing a
// fresh one if there is none. Failed fetches are not cached.
//
// Hits take the lock in shared mode. Misses for any path serialize on the
// exclusive lock.
//
// LOCKS_EXCLUDED(c.mu)
func (c *statCache) GetOrFetch(path string) (st unix.Stat_t, err error) {
	if st, ok := c.lookUp(path); ok {
		c.metrics.RecordCacheLookup(true)
		return st, nil
	}

	// Fetch while holding the exclusive lock, so that an invalidation racing
	// with this miss can't be overwritten by an older snapshot.
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another request may have populated the entry in the meantime.
	if existing, ok := c.entries[path]; ok {
		c.metrics.RecordCacheLookup(true)
		return existing, nil
	}

	c.metrics.RecordCacheLookup(false)

	st, err = c.lstat(path)
	if err != nil {
		return
	}

	c.entries[path] = st
	return
}

// Drop any snapshot for the supplied path.
//
// LOCKS_EXCLUDED(c.mu)
func (c *statCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Drop snapshots for the supplied path and everything below it.
//
// LOCKS_EXCLUDED(c.mu)
func (c *statCache) InvalidateTree(path string) {
	prefix := path + string(filepath.Separator)

	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.entries {
		if k == path || strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// LOCKS_EXCLUDED(c.mu)
func (c *statCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
