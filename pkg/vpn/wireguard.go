package vpn

import (
	"context"
	"log/slog"

	"vpn-speedtest/pkg/models"
)

const defaultWireGuardBinary = "wg-quick"

// WireGuard brings interfaces up and down with wg-quick. The session keeps the
// config path, so Disconnect only tears down the interface it brought up.
type WireGuard struct {
	client
}

func newWireGuard(config Config, logger *slog.Logger) *WireGuard {
	if config.Binary == "" {
		config.Binary = defaultWireGuardBinary
	}
	return &WireGuard{client: newClient(config, logger.With("vpn", string(SystemWireGuard)))}
}

func (w *WireGuard) Connect(ctx context.Context, ep models.Endpoint) (*Session, error) {
	configPath := w.configPath(ep)
	if err := w.preflight(configPath); err != nil {
		return nil, err
	}
	return w.launch(ctx, ep, configPath, "up", configPath)
}

func (w *WireGuard) Disconnect(ctx context.Context, s *Session) {
	if s == nil {
		w.logger.Warn("Disconnect called without a session")
		return
	}
	w.stop(ctx, w.config.Binary, "down", s.ConfigPath)
}
