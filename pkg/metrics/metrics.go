// Package metrics exports run results in the Prometheus text format, meant for
// the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"vpn-speedtest/pkg/models"
)

// BaselineLabel is the location label of the measurement taken without a VPN.
const BaselineLabel = "baseline"

type Recorder struct {
	registry *prometheus.Registry

	download       *prometheus.GaugeVec
	upload         *prometheus.GaugeVec
	ping           *prometheus.GaugeVec
	connect        *prometheus.GaugeVec
	skipped        prometheus.Counter
	droppedSamples prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		download: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vpn_speedtest_download_mbps",
			Help: "Mean download bandwidth of the last run.",
		}, []string{"location"}),
		upload: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vpn_speedtest_upload_mbps",
			Help: "Mean upload bandwidth of the last run.",
		}, []string{"location"}),
		ping: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vpn_speedtest_ping_ms",
			Help: "Mean latency of the last run.",
		}, []string{"location"}),
		connect: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vpn_speedtest_connect_seconds",
			Help: "Time spent bringing the tunnel up, including the settle delay.",
		}, []string{"location"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpn_speedtest_locations_skipped_total",
			Help: "Locations left out of the report because their cycle failed.",
		}),
		droppedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vpn_speedtest_samples_dropped_total",
			Help: "Speedtest runs that failed and were excluded from a mean.",
		}),
	}
	r.registry.MustRegister(r.download, r.upload, r.ping, r.connect, r.skipped, r.droppedSamples)
	return r
}

// Registry exposes the recorder's metrics for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) observe(location string, m models.Measurement) {
	r.download.WithLabelValues(location).Set(m.DownloadMbps)
	r.upload.WithLabelValues(location).Set(m.UploadMbps)
	r.ping.WithLabelValues(location).Set(m.PingMs)
}

// ObserveReport sets the gauges from a finished report.
func (r *Recorder) ObserveReport(report models.RunReport) {
	r.observe(BaselineLabel, report.WithoutVPN)
	for _, loc := range report.VPNStats {
		r.observe(loc.LocationName, loc.Speed)
		r.connect.WithLabelValues(loc.LocationName).Set(loc.ConnectDurationSeconds)
	}
}

func (r *Recorder) LocationSkipped() {
	r.skipped.Inc()
}

func (r *Recorder) SampleDropped() {
	r.droppedSamples.Inc()
}

// WriteTextfile writes all metrics to path, replacing it atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %v", path, err)
	}
	return nil
}
