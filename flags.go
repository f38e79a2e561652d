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

	"github.com/jacobsa/passthroughfs/internal/config"
)

var fConfig = flag.String("config", "", "Path to an optional YAML config file.")
var fRealDir = flag.String("path", "", "Real directory to mirror.")
var fMountPoint = flag.String("mount_point", "", "Path to mount point.")

var fDebug = flag.Bool("debug", false, "Enable debug logging.")
var fMetricsAddress = flag.String(
	"metrics_address",
	"",
	"If set, serve prometheus metrics at /metrics on this host:port.")

// Build the mount config from the config file, if any, and the command line.
// Flags set explicitly on the command line win.
//
// REQUIRES: flag.Parse has been called
func loadConfig() (*config.Config, error) {
	c := &config.Config{}
	if *fConfig != "" {
		var err error
		if c, err = config.Load(*fConfig); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			c.RealDir = *fRealDir

		case "mount_point":
			c.MountPoint = *fMountPoint

		case "debug":
			c.Debug = *fDebug

		case "metrics_address":
			c.MetricsAddress = *fMetricsAddress
		}
	})

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}
