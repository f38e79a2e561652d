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

// Package config holds the settings for a passthroughfs mount, optionally
// loaded from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v2"
)

// The settings for a single mount. The YAML keys match the names of the
// corresponding command-line flags.
type Config struct {
	// The real directory to mirror.
	RealDir string `yaml:"path"`

	// The directory at which to mount. Created if it doesn't exist.
	MountPoint string `yaml:"mount_point"`

	// Trace every op to the debug logger.
	Debug bool `yaml:"debug"`

	// If non-empty, a host:port on which to serve prometheus metrics.
	MetricsAddress string `yaml:"metrics_address"`
}

// Read a config from the YAML file with the supplied name. Unknown keys are
// rejected.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return c, nil
}

// Return an error if the config can't be used to mount.
func (c *Config) Validate() error {
	if c.RealDir == "" {
		return errors.New("you must set --path")
	}

	if c.MountPoint == "" {
		return errors.New("you must set --mount_point")
	}

	if c.MetricsAddress != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddress); err != nil {
			return fmt.Errorf("invalid metrics_address %q: %w", c.MetricsAddress, err)
		}
	}

	return nil
}
