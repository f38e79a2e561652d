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
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/oglematchers"
)

func attributes(c interface{}) (attrs fuseops.InodeAttributes, err error) {
	switch v := c.(type) {
	case fuseops.InodeAttributes:
		attrs = v

	case *fuseops.InodeAttributes:
		attrs = *v

	default:
		err = fmt.Errorf("which is of type %v", reflect.TypeOf(c))
	}

	return
}

// Match fuseops.InodeAttributes values whose mode has the supplied type bits,
// e.g. os.ModeDir or os.ModeSymlink. Zero matches regular files.
func TypeIs(expected os.FileMode) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error {
			attrs, err := attributes(c)
			if err != nil {
				return err
			}

			if attrs.Mode.Type() != expected {
				return fmt.Errorf("which has type bits %v", attrs.Mode.Type())
			}

			return nil
		},
		fmt.Sprintf("type bits are %v", expected))
}

// Match fuseops.InodeAttributes values whose mode has exactly the supplied
// permission bits, including setuid, setgid, and sticky.
func PermIs(expected os.FileMode) oglematchers.Matcher {
	const mask = os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky

	return oglematchers.NewMatcher(
		func(c interface{}) error {
			attrs, err := attributes(c)
			if err != nil {
				return err
			}

			if attrs.Mode&mask != expected {
				return fmt.Errorf("which has permissions %v", attrs.Mode&mask)
			}

			return nil
		},
		fmt.Sprintf("permissions are %v", expected))
}

func SizeIs(expected uint64) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error {
			attrs, err := attributes(c)
			if err != nil {
				return err
			}

			if attrs.Size != expected {
				return fmt.Errorf("which has size %v", attrs.Size)
			}

			return nil
		},
		fmt.Sprintf("size is %v", expected))
}

// Match fuseops.InodeAttributes values that specify an mtime equal to the
// given time.
func MtimeIs(expected time.Time) oglematchers.Matcher {
	return oglematchers.NewMatcher(
		func(c interface{}) error {
			attrs, err := attributes(c)
			if err != nil {
				return err
			}

			if !attrs.Mtime.Equal(expected) {
				d := attrs.Mtime.Sub(expected)
				return fmt.Errorf("which has mtime %v, off by %v", attrs.Mtime, d)
			}

			return nil
		},
		fmt.Sprintf("mtime is %v", expected))
}
