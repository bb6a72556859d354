package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"vpn-speedtest/pkg/measurement"
	"vpn-speedtest/pkg/models"
)

var ErrBaselineFailed = errors.New("speedtest without vpn failed")

// Tester drives a whole run: the baseline without a VPN, then every location in
// the order given.
type Tester struct {
	Aggregator  *measurement.Aggregator
	Coordinator *measurement.Coordinator
	Samples     int

	// OnSkip, if set, is called for every location left out of the report.
	OnSkip func(ep models.Endpoint, err error)

	hostname func() (string, error)
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

func New(coordinator *measurement.Coordinator, samples int, logger *slog.Logger) *Tester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tester{
		Aggregator:  coordinator.Aggregator,
		Coordinator: coordinator,
		Samples:     samples,
		hostname:    os.Hostname,
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logger,
	}
}

// Baseline aggregates speedtests over the host's own connection.
func (t *Tester) Baseline(ctx context.Context) (models.Measurement, error) {
	t.logger.Info("Running speed tests without VPN", "samples", t.Samples)
	m, err := t.Aggregator.Aggregate(ctx, t.Samples)
	if err != nil {
		return models.Measurement{}, fmt.Errorf("%w: %w", ErrBaselineFailed, err)
	}
	return m, nil
}

// Run measures the baseline and then each endpoint. A baseline failure is
// returned with an empty report. A failed location is logged and skipped.
// If ctx is cancelled between or during locations, the interrupted location is
// not counted as skipped, the remaining ones are not attempted and the partial
// report is returned together with ctx's error.
func (t *Tester) Run(ctx context.Context, endpoints []models.Endpoint) (models.RunReport, error) {
	report := models.RunReport{
		RunID:       t.newID(),
		MachineName: t.machineName(),
		OS:          runtime.GOOS + "/" + runtime.GOARCH,
		StartedAt:   t.timestamp(),
		VPNStats:    make([]models.LocationResult, 0, len(endpoints)),
	}
	log := t.logger.With("run", report.RunID)

	baseline, err := t.Baseline(ctx)
	if err != nil {
		log.Error("Error running speed tests without VPN", "error", err)
		return models.RunReport{}, err
	}
	report.WithoutVPN = baseline

	for i, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			log.Warn("Run interrupted", "remaining", len(endpoints)-i, "error", err)
			report.FinishedAt = t.timestamp()
			return report, err
		}

		result, err := t.Coordinator.RunForLocation(ctx, ep, t.Samples)
		if err != nil && ctx.Err() != nil {
			log.Warn("Run interrupted", "location", ep.Label(), "remaining", len(endpoints)-i, "error", err)
			report.FinishedAt = t.timestamp()
			return report, ctx.Err()
		}
		if err != nil {
			log.Error("Skipping location", "location", ep.Label(), "index", i, "error", err)
			if t.OnSkip != nil {
				t.OnSkip(ep, err)
			}
			continue
		}
		report.VPNStats = append(report.VPNStats, result)
	}

	report.FinishedAt = t.timestamp()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	log.Info("Run finished",
		"locations", len(endpoints),
		"completed", len(report.VPNStats))
	return report, nil
}

func (t *Tester) machineName() string {
	name, err := t.hostname()
	if err != nil {
		t.logger.Warn("Could not read hostname", "error", err)
		return "unknown"
	}
	return name
}

func (t *Tester) timestamp() time.Time {
	return t.now().UTC().Truncate(time.Second)
}
