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

// Package monitor exports prometheus metrics describing the ops served by the
// file system and the effectiveness of its metadata cache.
package monitor

import (
	"reflect"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"
)

const namespace = "passthroughfs"

// Metrics for a single mounted file system. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ops          *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// Create metrics and register them with the supplied registerer. Panics if
// registration fails, e.g. because the metrics are already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ops_total",
				Help:      "Number of fuse ops served, by op type and result.",
			},
			[]string{"op", "result"}),

		opDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "op_duration_seconds",
				Help:      "Time taken to serve fuse ops, by op type.",
				Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
			},
			[]string{"op"}),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_cache_lookups_total",
				Help:      "Metadata cache lookups, by hit or miss.",
			},
			[]string{"result"}),
	}

	reg.MustRegister(m.ops, m.opDuration, m.cacheLookups)
	return m
}

// Return a short name for a fuseops op value, e.g. "LookUpInode" for
// *fuseops.LookUpInodeOp.
func OpName(op interface{}) string {
	t := reflect.TypeOf(op)
	if t == nil {
		return "nil"
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return strings.TrimSuffix(t.Name(), "Op")
}

// Return the label used for an op result: "ok", or the errno's symbolic name.
func ResultLabel(errno syscall.Errno) string {
	if errno == 0 {
		return "ok"
	}

	if name := unix.ErrnoName(errno); name != "" {
		return name
	}

	return "errno_" + strconv.Itoa(int(errno))
}

// Record that an op with the supplied name finished with the supplied errno
// after the supplied duration.
func (m *Metrics) RecordOp(name string, errno syscall.Errno, d time.Duration) {
	if m == nil {
		return
	}

	m.ops.WithLabelValues(name, ResultLabel(errno)).Inc()
	m.opDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Record a metadata cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	m.cacheLookups.WithLabelValues(result).Inc()
}
