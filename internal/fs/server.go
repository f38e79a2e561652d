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
	"errors"
	"io"
	"log"
	"sync"
	"syscall"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/passthroughfs/internal/monitor"
)

// Call the handler for the supplied op, which must be a pointer to one of the
// fuseops op types. Ops without a handler are answered with ENOSYS.
func (fs *FileSystem) Dispatch(ctx context.Context, op interface{}) error {
	switch typed := op.(type) {
	default:
		return fuse.ENOSYS

	case *fuseops.LookUpInodeOp:
		return fs.LookUpInode(ctx, typed)

	case *fuseops.GetInodeAttributesOp:
		return fs.GetInodeAttributes(ctx, typed)

	case *fuseops.SetInodeAttributesOp:
		return fs.SetInodeAttributes(ctx, typed)

	case *fuseops.ForgetInodeOp:
		return fs.ForgetInode(ctx, typed)

	case *fuseops.BatchForgetOp:
		return fs.BatchForget(ctx, typed)

	case *fuseops.MkDirOp:
		return fs.MkDir(ctx, typed)

	case *fuseops.CreateFileOp:
		return fs.CreateFile(ctx, typed)

	case *fuseops.RenameOp:
		return fs.Rename(ctx, typed)

	case *fuseops.RmDirOp:
		return fs.RmDir(ctx, typed)

	case *fuseops.UnlinkOp:
		return fs.Unlink(ctx, typed)

	case *fuseops.OpenDirOp:
		return fs.OpenDir(ctx, typed)

	case *fuseops.ReadDirOp:
		return fs.ReadDir(ctx, typed)

	case *fuseops.ReleaseDirHandleOp:
		return fs.ReleaseDirHandle(ctx, typed)

	case *fuseops.OpenFileOp:
		return fs.OpenFile(ctx, typed)

	case *fuseops.ReadFileOp:
		return fs.ReadFile(ctx, typed)

	case *fuseops.WriteFileOp:
		return fs.WriteFile(ctx, typed)

	case *fuseops.SyncFileOp:
		return fs.SyncFile(ctx, typed)

	case *fuseops.FlushFileOp:
		return fs.FlushFile(ctx, typed)

	case *fuseops.ReleaseFileHandleOp:
		return fs.ReleaseFileHandle(ctx, typed)

	case *fuseops.ReadSymlinkOp:
		return fs.ReadSymlink(ctx, typed)

	case *fuseops.StatFSOp:
		return fs.StatFS(ctx, typed)
	}
}

func newFileSystemServer(
	fs *FileSystem,
	metrics *monitor.Metrics,
	debugLogger *log.Logger) fuse.Server {
	return &fileSystemServer{
		fs:          fs,
		metrics:     metrics,
		debugLogger: debugLogger,
	}
}

type fileSystemServer struct {
	fs          *FileSystem
	metrics     *monitor.Metrics
	debugLogger *log.Logger

	opsInFlight sync.WaitGroup
}

func (s *fileSystemServer) ServeOps(c *fuse.Connection) {
	// Don't return until all ops have been replied to.
	defer s.opsInFlight.Wait()

	for {
		ctx, op, err := c.ReadOp()
		if err == io.EOF {
			break
		}

		if err != nil {
			panic(err)
		}

		s.opsInFlight.Add(1)

		// Forgets are handled inline so that they stay ordered with respect to
		// the lookups that precede them.
		switch op.(type) {
		case *fuseops.ForgetInodeOp, *fuseops.BatchForgetOp:
			s.handleOp(c, ctx, op)

		default:
			go s.handleOp(c, ctx, op)
		}
	}
}

func (s *fileSystemServer) handleOp(
	c *fuse.Connection,
	ctx context.Context,
	op interface{}) {
	defer s.opsInFlight.Done()

	name := monitor.OpName(op)
	start := time.Now()

	err := s.fs.Dispatch(ctx, op)

	s.metrics.RecordOp(name, replyErrno(err), time.Since(start))
	if s.debugLogger != nil {
		s.debugLogger.Printf("%s: %v", name, describeResult(err))
	}

	c.Reply(ctx, err)
}

// Return the errno carried by a handler's result. Handlers only ever return
// errnos, but anything else would be reported to the kernel as EIO.
func replyErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	return EIO
}

func describeResult(err error) string {
	if err == nil {
		return "OK"
	}

	return err.Error()
}
