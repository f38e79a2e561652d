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

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "config.yaml")
	contents := "path: /srv/real\nmount_point: /mnt/from_file\nmetrics_address: localhost:9100\n"
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0600))

	require.NoError(t, flag.Set("config", filename))
	require.NoError(t, flag.Set("mount_point", "/mnt/from_flag"))
	require.NoError(t, flag.Set("debug", "true"))

	c, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "/srv/real", c.RealDir)
	assert.Equal(t, "/mnt/from_flag", c.MountPoint)
	assert.True(t, c.Debug)
	assert.Equal(t, "localhost:9100", c.MetricsAddress)
}
