package measurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/speedtest"
)

// MaxDroppedSamples is how many failed probes an aggregation tolerates.
const MaxDroppedSamples = 2

var ErrInsufficientSamples = errors.New("too many failed speedtests")

// Aggregator runs a Prober repeatedly and averages the successful samples.
type Aggregator struct {
	Prober speedtest.Prober
	// OnDrop, if set, is called for every failed probe.
	OnDrop func(err error)

	logger *slog.Logger
}

func NewAggregator(prober speedtest.Prober, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		Prober: prober,
		logger: logger,
	}
}

// Sufficient reports whether ok successes out of sampleCount attempts may be
// aggregated: at least one success and at most MaxDroppedSamples failures.
func Sufficient(ok, sampleCount int) bool {
	return ok > 0 && ok >= sampleCount-MaxDroppedSamples
}

// Aggregate calls the prober sampleCount times, one after the other, and returns
// the rounded mean of the samples that succeeded. Probe failures are logged and
// dropped; if too many are dropped it fails with ErrInsufficientSamples.
func (a *Aggregator) Aggregate(ctx context.Context, sampleCount int) (models.Measurement, error) {
	samples := make([]models.Measurement, 0, max(sampleCount, 0))

	for attempt := 1; attempt <= sampleCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.Measurement{}, err
		}

		m, err := a.Prober.MeasureOnce(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return models.Measurement{}, ctxErr
			}
			a.logger.Warn("Speedtest failed. Skipping result.",
				"attempt", attempt,
				"of", sampleCount,
				"error", err)
			if a.OnDrop != nil {
				a.OnDrop(err)
			}
			continue
		}
		a.logger.Debug("Speedtest sample", "attempt", attempt, "result", m.String())
		samples = append(samples, m)
	}

	if !Sufficient(len(samples), sampleCount) {
		return models.Measurement{}, fmt.Errorf("%w: %d of %d succeeded", ErrInsufficientSamples, len(samples), sampleCount)
	}

	avg := Mean(samples)
	a.logger.Info("Average speedtest result",
		"download", avg.DownloadMbps,
		"upload", avg.UploadMbps,
		"ping", avg.PingMs,
		"samples", len(samples))
	return avg, nil
}

// Mean is the field-wise arithmetic mean of samples, each rounded to the nearest
// whole unit with halves rounded away from zero (math.Round). It returns the zero
// Measurement for no samples.
func Mean(samples []models.Measurement) models.Measurement {
	if len(samples) == 0 {
		return models.Measurement{}
	}
	var sum models.Measurement
	for _, s := range samples {
		sum.DownloadMbps += s.DownloadMbps
		sum.UploadMbps += s.UploadMbps
		sum.PingMs += s.PingMs
	}
	n := float64(len(samples))
	return models.Measurement{
		DownloadMbps: math.Round(sum.DownloadMbps / n),
		UploadMbps:   math.Round(sum.UploadMbps / n),
		PingMs:       math.Round(sum.PingMs / n),
	}
}
