package tester

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpn-speedtest/pkg/measurement"
	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/vpn"
)

var errProbe = errors.New("speedtest exited with code 2")

// network plays both sides of a run: the VPN controller decides which location is
// active and the prober answers for whatever location that is.
type network struct {
	active      string
	speeds      map[string]models.Measurement
	failing     map[string]bool
	connected   []string
	disconnects int
}

func (n *network) Connect(ctx context.Context, ep models.Endpoint) (*vpn.Session, error) {
	n.active = ep.Label()
	n.connected = append(n.connected, n.active)
	return &vpn.Session{Endpoint: ep, ConnectDuration: 10500 * time.Millisecond}, nil
}

func (n *network) Disconnect(ctx context.Context, s *vpn.Session) {
	n.disconnects++
	n.active = ""
}

func (n *network) MeasureOnce(ctx context.Context) (models.Measurement, error) {
	if n.failing[n.active] {
		return models.Measurement{}, errProbe
	}
	return n.speeds[n.active], nil
}

func newTester(n *network) *Tester {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	agg := measurement.NewAggregator(n, logger)
	coord := measurement.NewCoordinator(n, agg, logger)
	tr := New(coord, 3, logger)
	tr.hostname = func() (string, error) { return "probe-01", nil }
	tr.now = func() time.Time { return time.Date(2026, 10, 14, 11, 30, 5, 999, time.FixedZone("CEST", 2*3600)) }
	tr.newID = func() string { return "run-1" }
	return tr
}

var endpoints = []models.Endpoint{
	{Country: "UK", City: "London", ConfigFile: "uk-london.ovpn"},
	{Country: "USA", City: "New York", ConfigFile: "usa-newyork.ovpn"},
}

func TestRunSkipsFailedLocation(t *testing.T) {
	n := &network{
		speeds: map[string]models.Measurement{
			"":           {DownloadMbps: 100, UploadMbps: 48, PingMs: 15},
			"London, UK": {DownloadMbps: 80, UploadMbps: 30, PingMs: 25},
		},
		failing: map[string]bool{"New York, USA": true},
	}
	tr := newTester(n)
	var skipped []string
	tr.OnSkip = func(ep models.Endpoint, err error) {
		skipped = append(skipped, ep.Label())
		assert.ErrorIs(t, err, measurement.ErrInsufficientSamples)
	}

	report, err := tr.Run(context.Background(), endpoints)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "probe-01", report.MachineName)
	assert.NotEmpty(t, report.OS)
	assert.Equal(t, time.Date(2026, 10, 14, 9, 30, 5, 0, time.UTC), report.StartedAt)
	assert.Equal(t, models.Measurement{DownloadMbps: 100, UploadMbps: 48, PingMs: 15}, report.WithoutVPN)
	require.Len(t, report.VPNStats, 1)
	assert.Equal(t, models.LocationResult{
		LocationName:           "London, UK",
		ConnectDurationSeconds: 10.5,
		Speed:                  models.Measurement{DownloadMbps: 80, UploadMbps: 30, PingMs: 25},
	}, report.VPNStats[0])

	assert.Equal(t, []string{"London, UK", "New York, USA"}, n.connected)
	assert.Equal(t, 2, n.disconnects, "every connected location is disconnected")
	assert.Equal(t, []string{"New York, USA"}, skipped)
}

func TestRunBaselineFailure(t *testing.T) {
	n := &network{failing: map[string]bool{"": true}}
	tr := newTester(n)

	report, err := tr.Run(context.Background(), endpoints)
	assert.ErrorIs(t, err, ErrBaselineFailed)
	assert.ErrorIs(t, err, measurement.ErrInsufficientSamples)
	assert.Empty(t, report.VPNStats)
	assert.Empty(t, n.connected, "no location is attempted without a baseline")
}

func TestRunNoEndpoints(t *testing.T) {
	n := &network{speeds: map[string]models.Measurement{"": {DownloadMbps: 10, UploadMbps: 5, PingMs: 8}}}

	report, err := newTester(n).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, report.VPNStats)
	assert.Empty(t, report.VPNStats)
}

func TestRunCancelledKeepsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := &network{
		speeds: map[string]models.Measurement{
			"":           {DownloadMbps: 100, UploadMbps: 48, PingMs: 15},
			"London, UK": {DownloadMbps: 80, UploadMbps: 30, PingMs: 25},
		},
	}
	tr := newTester(n)
	tr.OnSkip = func(models.Endpoint, error) { t.Error("no location should be skipped") }
	// The aggregator is shared with the coordinator.
	tr.Aggregator.Prober = &cancelAfter{network: n, label: "London, UK", cancel: cancel}

	report, err := tr.Run(ctx, endpoints)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.Measurement{DownloadMbps: 100, UploadMbps: 48, PingMs: 15}, report.WithoutVPN)
	require.Len(t, report.VPNStats, 1)
	assert.Equal(t, "London, UK", report.VPNStats[0].LocationName)
	assert.Equal(t, []string{"London, UK"}, n.connected)
	assert.Equal(t, 1, n.disconnects)
	assert.False(t, report.FinishedAt.IsZero())
}

// cancelAfter cancels the run once after samples for label have been taken,
// or after the third when after is zero.
type cancelAfter struct {
	*network
	label  string
	cancel context.CancelFunc
	after  int
	taken  int
}

func (c *cancelAfter) MeasureOnce(ctx context.Context) (models.Measurement, error) {
	m, err := c.network.MeasureOnce(ctx)
	if c.active == c.label {
		c.taken++
		after := c.after
		if after == 0 {
			after = 3
		}
		if c.taken == after {
			c.cancel()
		}
	}
	return m, err
}

func TestRunCancelledMidLocationIsNotSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := &network{
		speeds: map[string]models.Measurement{
			"":              {DownloadMbps: 100, UploadMbps: 48, PingMs: 15},
			"London, UK":    {DownloadMbps: 80, UploadMbps: 30, PingMs: 25},
			"New York, USA": {DownloadMbps: 60, UploadMbps: 20, PingMs: 90},
		},
	}
	tr := newTester(n)
	var skipped int
	tr.OnSkip = func(models.Endpoint, error) { skipped++ }
	// Cancel during London's first sample, before it can complete.
	tr.Aggregator.Prober = &cancelAfter{network: n, label: "London, UK", cancel: cancel, after: 1}

	report, err := tr.Run(ctx, endpoints)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, skipped, "an interrupted location is not a skipped one")
	assert.Empty(t, report.VPNStats)
	assert.Equal(t, models.Measurement{DownloadMbps: 100, UploadMbps: 48, PingMs: 15}, report.WithoutVPN)
	assert.Equal(t, []string{"London, UK"}, n.connected)
	assert.Equal(t, 1, n.disconnects)
	assert.False(t, report.FinishedAt.IsZero())
}
