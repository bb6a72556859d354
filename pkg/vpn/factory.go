package vpn

import (
	"fmt"
	"log/slog"
)

// NewController creates a VPN controller for the configured client.
func NewController(config Config, logger *slog.Logger) (Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ConnectSettle == 0 {
		config.ConnectSettle = DefaultConnectSettle
	}
	if config.DisconnectSettle == 0 {
		config.DisconnectSettle = DefaultDisconnectSettle
	}

	switch config.System {
	case SystemOpenVPN, "":
		config.System = SystemOpenVPN
		return newOpenVPN(config, logger), nil
	case SystemWireGuard:
		return newWireGuard(config, logger), nil
	default:
		return nil, fmt.Errorf("unsupported vpn client: %s", config.System)
	}
}
