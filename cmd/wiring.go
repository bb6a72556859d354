package main

import (
	"context"
	"fmt"
	"time"

	"vpn-speedtest/pkg/config"
	"vpn-speedtest/pkg/connectivity"
	"vpn-speedtest/pkg/database"
	"vpn-speedtest/pkg/ipinfo"
	"vpn-speedtest/pkg/measurement"
	"vpn-speedtest/pkg/metrics"
	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/speedtest"
	"vpn-speedtest/pkg/vpn"
)

const saveTimeout = 30 * time.Second

func newProber(s config.Settings) *speedtest.OoklaProber {
	return speedtest.NewOoklaProber(s.Speedtest.Binary, logger)
}

// newAggregator counts dropped samples on recorder when it is not nil.
func newAggregator(s config.Settings, recorder *metrics.Recorder) *measurement.Aggregator {
	aggregator := measurement.NewAggregator(newProber(s), logger)
	if recorder != nil {
		aggregator.OnDrop = func(error) { recorder.SampleDropped() }
	}
	return aggregator
}

func newCoordinator(s config.Settings, recorder *metrics.Recorder) (*measurement.Coordinator, error) {
	vpnConfig := vpn.Config{
		System:    vpn.System(s.VPN.Client),
		Binary:    s.VPN.Binary,
		ConfigDir: s.VPN.ConfigDir,
		AuthFile:  s.VPN.AuthFile,
	}
	if s.VPN.VerifyTunnel {
		vpnConfig.Verifier = connectivity.NewChecker(s.VPN.VerifyResolver, s.VPN.VerifyDomain, logger)
	}

	controller, err := vpn.NewController(vpnConfig, logger)
	if err != nil {
		return nil, err
	}

	coordinator := measurement.NewCoordinator(controller, newAggregator(s, recorder), logger)
	if s.IPInfo.Enabled {
		coordinator.Locator = ipinfo.NewClient(s.IPInfo.Token)
	}
	return coordinator, nil
}

func saveReport(ctx context.Context, s config.DatabaseSettings, rep models.RunReport) error {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	db, err := database.NewDB(s.DSN())
	if err != nil {
		return fmt.Errorf("error connecting to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("error initializing database schema: %v", err)
	}
	if err := db.SaveReport(ctx, rep); err != nil {
		return err
	}
	logger.Info("Run saved to database", "run", rep.RunID)
	return nil
}
