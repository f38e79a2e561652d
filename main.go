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

// passthroughfs mounts a fuse file system that mirrors an existing directory.
//
// Usage:
//
//	passthroughfs --path /srv/real --mount_point /mnt/passthrough
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/passthroughfs/internal/fs"
	"github.com/jacobsa/passthroughfs/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func serveMetrics(addr string, errorLogger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			errorLogger.Printf("Serving metrics: %v", err)
		}
	}()
}

func main() {
	flag.Parse()

	debugLogger := log.New(os.Stdout, "passthroughfs: ", log.Lmicroseconds)
	errorLogger := log.New(os.Stderr, "passthroughfs: ", log.LstdFlags)

	c, err := loadConfig()
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}

	metrics := monitor.NewMetrics(prometheus.DefaultRegisterer)
	if c.MetricsAddress != "" {
		serveMetrics(c.MetricsAddress, errorLogger)
	}

	serverCfg := &fs.ServerConfig{
		RealDir:     c.RealDir,
		Metrics:     metrics,
		ErrorLogger: errorLogger,
	}

	if c.Debug {
		serverCfg.DebugLogger = debugLogger
	}

	server, err := fs.NewServer(serverCfg)
	if err != nil {
		log.Fatalf("NewServer: %v", err)
	}

	err = os.MkdirAll(c.MountPoint, 0777)
	if err != nil {
		log.Fatalf("Failed to create mount point at '%v': %v", c.MountPoint, err)
	}

	cfg := &fuse.MountConfig{
		FSName:      "passthroughfs",
		ErrorLogger: errorLogger,
		Options: map[string]string{
			"auto_unmount":        "",
			"default_permissions": "",
		},
	}

	if c.Debug {
		cfg.DebugLogger = debugLogger
	}

	mfs, err := fuse.Mount(c.MountPoint, server, cfg)
	if err != nil {
		log.Fatalf("Mount: %v", err)
	}

	// Wait for it to be unmounted.
	if err = mfs.Join(context.Background()); err != nil {
		log.Fatalf("Join: %v", err)
	}
}
