// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prommetrics exports data cache activity as Prometheus
// metrics. [New] returns a [datacache.Metrics] for FileIOConfig.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/datacache"
)

var durationBuckets = []float64{
	0.1,  // 100us: in-flight hits
	0.5,  // 500us
	1,    // 1ms: small files from page cache
	5,    // 5ms
	10,   // 10ms
	50,   // 50ms
	100,  // 100ms: large meshes with decode
	500,  // 500ms
	1000, // 1s
}

var sizeBuckets = []float64{
	1024,     // 1KB: metadata sidecars
	16384,    // 16KB
	131072,   // 128KB
	1048576,  // 1MB
	4194304,  // 4MB: typical texture
	16777216, // 16MB
	67108864, // 64MB
}

// Metrics is the Prometheus implementation of datacache.Metrics.
type Metrics struct {
	loads          *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	loadBytes      *prometheus.HistogramVec
	stores         *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	storeBytes     *prometheus.HistogramVec
	queuedLoads    prometheus.Gauge
	queuedStores   prometheus.Gauge
	inFlightStores prometheus.Gauge
}

var _ datacache.Metrics = (*Metrics)(nil)

// New registers the data cache metrics with registerer. A nil
// registerer means prometheus.DefaultRegisterer. Registering twice
// with the same registerer panics, as with any promauto collector.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gfxcache_loads_total",
				Help: "Asset loads by category, source, and result",
			},
			[]string{"category", "source", "result"},
		),
		loadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gfxcache_load_duration_milliseconds",
				Help:    "Time from dispatch to completion of asset loads",
				Buckets: durationBuckets,
			},
			[]string{"category", "source"},
		),
		loadBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gfxcache_load_bytes",
				Help:    "Uncompressed payload size of successful loads",
				Buckets: sizeBuckets,
			},
			[]string{"category"},
		),
		stores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gfxcache_stores_total",
				Help: "Asset stores by category, compression, and result",
			},
			[]string{"category", "compression", "result"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gfxcache_store_duration_milliseconds",
				Help:    "Time from dispatch to completion of asset stores",
				Buckets: durationBuckets,
			},
			[]string{"category"},
		),
		storeBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gfxcache_store_bytes",
				Help:    "Bytes written per successful store, after compression",
				Buckets: sizeBuckets,
			},
			[]string{"category"},
		),
		queuedLoads: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gfxcache_queued_loads",
			Help: "Loads taken by the worker on its last wake",
		}),
		queuedStores: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gfxcache_queued_stores",
			Help: "Stores taken by the worker on its last wake",
		}),
		inFlightStores: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gfxcache_in_flight_stores",
			Help: "Stores enqueued but not yet written",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func milliseconds(duration time.Duration) float64 {
	return float64(duration.Microseconds()) / 1000
}

// ObserveLoad implements datacache.Metrics.
func (m *Metrics) ObserveLoad(category assetkey.Category, source string, bytes int, duration time.Duration, err error) {
	m.loads.WithLabelValues(category.String(), source, result(err)).Inc()
	m.loadDuration.WithLabelValues(category.String(), source).Observe(milliseconds(duration))
	if err == nil {
		m.loadBytes.WithLabelValues(category.String()).Observe(float64(bytes))
	}
}

// ObserveStore implements datacache.Metrics.
func (m *Metrics) ObserveStore(category assetkey.Category, compression datacache.CompressionTag, bytes int, duration time.Duration, err error) {
	m.stores.WithLabelValues(category.String(), compression.String(), result(err)).Inc()
	m.storeDuration.WithLabelValues(category.String()).Observe(milliseconds(duration))
	if err == nil {
		m.storeBytes.WithLabelValues(category.String()).Observe(float64(bytes))
	}
}

// RecordQueueDepth implements datacache.Metrics.
func (m *Metrics) RecordQueueDepth(loads, stores int) {
	m.queuedLoads.Set(float64(loads))
	m.queuedStores.Set(float64(stores))
}

// RecordInFlightStores implements datacache.Metrics.
func (m *Metrics) RecordInFlightStores(count int) {
	m.inFlightStores.Set(float64(count))
}
