package vpn

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/process"
)

// client holds what both VPN clients share: subprocess launching, settle
// delays and the optional tunnel check.
type client struct {
	config   Config
	logger   *slog.Logger
	run      process.Runner
	lookPath func(file string) (string, error)
	sleep    func(ctx context.Context, d time.Duration) error
}

func newClient(config Config, logger *slog.Logger) client {
	return client{
		config:   config,
		logger:   logger,
		run:      process.Exec,
		lookPath: exec.LookPath,
		sleep:    sleepContext,
	}
}

func (c *client) configPath(ep models.Endpoint) string {
	if filepath.IsAbs(ep.ConfigFile) {
		return ep.ConfigFile
	}
	return filepath.Join(c.config.ConfigDir, ep.ConfigFile)
}

// preflight catches the failures that happen before anything is launched.
func (c *client) preflight(configPath string) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("%w: config file: %v", ErrLaunch, err)
	}
	if _, err := c.lookPath(c.config.Binary); err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	return nil
}

// launch runs the client start command and waits for the tunnel to settle.
// From the moment the command is issued a Session is returned.
func (c *client) launch(ctx context.Context, ep models.Endpoint, configPath string, args ...string) (*Session, error) {
	session := &Session{
		Endpoint:   ep,
		ConfigPath: configPath,
		StartedAt:  time.Now(),
	}

	res, err := c.run(ctx, c.config.Binary, args...)
	if err != nil {
		return session, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	if res.ExitCode != 0 {
		return session, fmt.Errorf("%w: %s exited with code %d: %s",
			ErrLaunch, c.config.Binary, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}

	c.logger.Debug("Waiting for VPN tunnel to settle", "delay", c.config.ConnectSettle)
	if err := c.sleep(ctx, c.config.ConnectSettle); err != nil {
		return session, err
	}

	if c.config.Verifier != nil {
		if err := c.config.Verifier.Verify(ctx); err != nil {
			return session, fmt.Errorf("%w: %v", ErrTunnelUnverified, err)
		}
	}

	session.ConnectDuration = time.Since(session.StartedAt)
	c.logger.Info("Connected to VPN",
		"config", ep.ConfigFile,
		"assumedAfter", c.config.ConnectSettle,
		"elapsed", session.ConnectDuration.Round(time.Millisecond))
	return session, nil
}

// stop runs the client stop command and then waits the disconnect settle delay.
// It only logs failures.
func (c *client) stop(ctx context.Context, name string, args ...string) {
	res, err := c.run(ctx, name, args...)
	switch {
	case err != nil:
		c.logger.Error("Error disconnecting VPN", "command", name, "error", err)
	case res.ExitCode != 0:
		c.logger.Warn("VPN disconnect command failed",
			"command", name,
			"exitCode", res.ExitCode,
			"stderr", strings.TrimSpace(string(res.Stderr)))
	default:
		c.logger.Info("VPN disconnected")
	}

	if err := c.sleep(ctx, c.config.DisconnectSettle); err != nil {
		c.logger.Warn("Disconnect settle delay interrupted", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
