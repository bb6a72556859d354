package measurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/vpn"
)

var ErrConnectFailure = errors.New("vpn connect failed")

// EgressLocator reports the public address seen by the host.
type EgressLocator interface {
	Egress(ctx context.Context) (ip, country string, err error)
}

// Coordinator runs one connect, measure, disconnect cycle per location.
// It is the only owner of the VPN session while a cycle is running.
type Coordinator struct {
	VPN        vpn.Controller
	Aggregator *Aggregator
	// Locator is optional; when set the egress address is recorded in the result.
	Locator EgressLocator

	logger *slog.Logger
}

func NewCoordinator(controller vpn.Controller, aggregator *Aggregator, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		VPN:        controller,
		Aggregator: aggregator,
		logger:     logger,
	}
}

// RunForLocation connects to ep, aggregates sampleCount speedtests over the
// tunnel and disconnects. Once the VPN client has been launched, Disconnect runs
// exactly once whatever happens afterwards, including cancellation of ctx.
// Failures are ErrConnectFailure or ErrInsufficientSamples.
func (c *Coordinator) RunForLocation(ctx context.Context, ep models.Endpoint, sampleCount int) (models.LocationResult, error) {
	label := ep.Label()
	log := c.logger.With("location", label)

	log.Info("Connecting to VPN", "config", ep.ConfigFile)
	session, err := c.VPN.Connect(ctx, ep)
	if session != nil {
		defer func() {
			log.Info("Disconnecting VPN")
			c.VPN.Disconnect(context.WithoutCancel(ctx), session)
		}()
	}
	if err != nil {
		log.Error("Error connecting to VPN", "config", ep.ConfigFile, "error", err)
		return models.LocationResult{}, fmt.Errorf("%w: %s: %w", ErrConnectFailure, label, err)
	}

	result := models.LocationResult{
		LocationName:           label,
		ConnectDurationSeconds: roundSeconds(session.ConnectDuration.Seconds()),
	}

	if c.Locator != nil {
		ip, country, lookupErr := c.Locator.Egress(ctx)
		if lookupErr != nil {
			log.Warn("Egress lookup failed", "error", lookupErr)
		} else {
			result.EgressIP = ip
			result.EgressCountry = country
			log.Debug("Egress while connected", "ip", ip, "country", country)
		}
	}

	speed, err := c.Aggregator.Aggregate(ctx, sampleCount)
	if err != nil {
		log.Error("Error running VPN speed tests", "config", ep.ConfigFile, "error", err)
		return models.LocationResult{}, fmt.Errorf("%s: %w", label, err)
	}
	result.Speed = speed

	log.Info("Average speed test result",
		"download", speed.DownloadMbps,
		"upload", speed.UploadMbps,
		"ping", speed.PingMs,
		"timeToConnect", result.ConnectDurationSeconds)
	return result, nil
}

// roundSeconds keeps two decimals.
func roundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}
