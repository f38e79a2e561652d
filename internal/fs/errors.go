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
	"errors"
	"os"
	"syscall"

	"github.com/jacobsa/fuse"
)

// Errors returned to the kernel. Anything not listed here is reported as
// fuse.EIO.
const (
	EACCES    = syscall.EACCES
	EEXIST    = fuse.EEXIST
	EINVAL    = fuse.EINVAL
	EIO       = fuse.EIO
	ENOENT    = fuse.ENOENT
	ENOTEMPTY = fuse.ENOTEMPTY
)

// Translate an error returned by the host file system into the errno that
// should be surfaced to the kernel. The result is always one of the constants
// above; a nil error yields zero.
func toErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOENT:
			return ENOENT

		case syscall.EACCES, syscall.EPERM:
			return EACCES

		case syscall.EEXIST:
			return EEXIST

		case syscall.EINVAL:
			return EINVAL

		case syscall.ENOTEMPTY:
			return ENOTEMPTY
		}

		return EIO
	}

	// Errors synthesized by the os package without an errno underneath.
	switch {
	case errors.Is(err, os.ErrNotExist):
		return ENOENT

	case errors.Is(err, os.ErrPermission):
		return EACCES

	case errors.Is(err, os.ErrExist):
		return EEXIST

	case errors.Is(err, os.ErrInvalid):
		return EINVAL
	}

	return EIO
}
