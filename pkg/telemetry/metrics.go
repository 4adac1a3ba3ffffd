// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry holds shire's optional Prometheus metrics surface: one
// build's phase timings and row counts, exposed over HTTP for scraping.
package telemetry

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsBuild struct {
	once sync.Once

	manifestsNew       prometheus.Counter
	manifestsChanged   prometheus.Counter
	manifestsRemoved   prometheus.Counter
	parseFailures      prometheus.Counter
	packagesIndexed    prometheus.Gauge
	symbolsIndexed     prometheus.Gauge
	filesIndexed       prometheus.Gauge
	manifestReextracts prometheus.Counter
	sourceReextracts   prometheus.Counter
	buildsTotal        prometheus.Counter
	buildFailures      prometheus.Counter

	phaseDuration prometheus.HistogramVec
	totalDuration prometheus.Histogram
}

var buildMetrics metricsBuild

func (m *metricsBuild) init() {
	m.once.Do(func() {
		m.manifestsNew = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_manifests_new_total", Help: "Manifests seen for the first time"})
		m.manifestsChanged = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_manifests_changed_total", Help: "Manifests whose content hash changed"})
		m.manifestsRemoved = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_manifests_removed_total", Help: "Manifests no longer present on disk"})
		m.parseFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_parse_failures_total", Help: "Manifest parse failures recorded during a build"})
		m.packagesIndexed = prometheus.NewGauge(prometheus.GaugeOpts{Name: "shire_build_packages", Help: "Package rows after the most recent build"})
		m.symbolsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{Name: "shire_build_symbols", Help: "Symbol rows after the most recent build"})
		m.filesIndexed = prometheus.NewGauge(prometheus.GaugeOpts{Name: "shire_build_files", Help: "File rows after the most recent build"})
		m.manifestReextracts = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_manifest_reextracts_total", Help: "Packages re-extracted because their manifest changed (Phase 7)"})
		m.sourceReextracts = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_source_reextracts_total", Help: "Packages re-extracted because their source changed (Phase 8)"})
		m.buildsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_runs_total", Help: "Completed build runs"})
		m.buildFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "shire_build_failures_total", Help: "Build runs that aborted on a fatal error"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.phaseDuration = *prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "shire_build_phase_seconds", Help: "Duration of one orchestrator phase", Buckets: buckets,
		}, []string{"phase"})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "shire_build_total_seconds", Help: "Total build duration", Buckets: buckets})

		prometheus.MustRegister(
			m.manifestsNew, m.manifestsChanged, m.manifestsRemoved, m.parseFailures,
			m.packagesIndexed, m.symbolsIndexed, m.filesIndexed,
			m.manifestReextracts, m.sourceReextracts, m.buildsTotal, m.buildFailures,
			m.phaseDuration, m.totalDuration,
		)
	})
}

// RecordManifestDiff records Phase 2's new/changed/removed counts.
func RecordManifestDiff(newCount, changedCount, removedCount int) {
	buildMetrics.init()
	buildMetrics.manifestsNew.Add(float64(newCount))
	buildMetrics.manifestsChanged.Add(float64(changedCount))
	buildMetrics.manifestsRemoved.Add(float64(removedCount))
}

// RecordParseFailure increments the parse-failure counter (spec.md §7:
// non-fatal, recorded and surfaced in the build summary).
func RecordParseFailure() {
	buildMetrics.init()
	buildMetrics.parseFailures.Inc()
}

// RecordManifestReextract increments the Phase 7 re-extraction counter.
func RecordManifestReextract() {
	buildMetrics.init()
	buildMetrics.manifestReextracts.Inc()
}

// RecordSourceReextract increments the Phase 8 re-extraction counter,
// tracked separately from Phase 7 per spec.md §4.11.
func RecordSourceReextract() {
	buildMetrics.init()
	buildMetrics.sourceReextracts.Inc()
}

// RecordPhaseDuration records one phase's wall-clock time.
func RecordPhaseDuration(phase string, d time.Duration) {
	buildMetrics.init()
	buildMetrics.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordBuildComplete updates the post-build gauges and totals (spec.md §9
// summary fields: package_count, symbol_count, file_count, total_duration_ms).
func RecordBuildComplete(packages, symbols, files int, total time.Duration) {
	buildMetrics.init()
	buildMetrics.packagesIndexed.Set(float64(packages))
	buildMetrics.symbolsIndexed.Set(float64(symbols))
	buildMetrics.filesIndexed.Set(float64(files))
	buildMetrics.totalDuration.Observe(total.Seconds())
	buildMetrics.buildsTotal.Inc()
}

// RecordBuildFailure increments the fatal-abort counter (spec.md §7: DB and
// configuration errors abort the build).
func RecordBuildFailure() {
	buildMetrics.init()
	buildMetrics.buildFailures.Inc()
}

// Serve starts an HTTP server exposing /metrics on addr and returns it
// without blocking; the caller is responsible for calling Shutdown. A
// failure to bind is returned synchronously rather than logged and
// swallowed, since an explicitly requested metrics address that can't be
// served is a configuration error the caller should see.
func Serve(addr string) (*http.Server, error) {
	buildMetrics.init()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv.Addr = ln.Addr().String()
	go func() { _ = srv.Serve(ln) }()
	return srv, nil
}

// Shutdown gracefully stops a server returned by Serve.
func Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
