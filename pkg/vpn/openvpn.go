package vpn

import (
	"context"
	"log/slog"
	"path/filepath"

	"vpn-speedtest/pkg/models"
)

const (
	defaultOpenVPNBinary = "openvpn"
	pkillBinary          = "pkill"
)

// OpenVPN runs the openvpn client as a daemon and stops it by process name.
type OpenVPN struct {
	client
}

func newOpenVPN(config Config, logger *slog.Logger) *OpenVPN {
	if config.Binary == "" {
		config.Binary = defaultOpenVPNBinary
	}
	return &OpenVPN{client: newClient(config, logger.With("vpn", string(SystemOpenVPN)))}
}

func (o *OpenVPN) Connect(ctx context.Context, ep models.Endpoint) (*Session, error) {
	configPath := o.configPath(ep)
	if err := o.preflight(configPath); err != nil {
		return nil, err
	}
	return o.launch(ctx, ep, configPath,
		"--config", configPath,
		"--auth-user-pass", o.config.AuthFile,
		"--daemon",
	)
}

// Disconnect terminates every openvpn process; the daemon is not tracked by pid.
func (o *OpenVPN) Disconnect(ctx context.Context, s *Session) {
	o.stop(ctx, pkillBinary, filepath.Base(o.config.Binary))
}
