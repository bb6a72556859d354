package vpn

import (
	"context"
	"errors"
	"time"

	"vpn-speedtest/pkg/models"
)

// System names a supported VPN client.
type System string

const (
	SystemOpenVPN   System = "openvpn"
	SystemWireGuard System = "wireguard"
)

const (
	// DefaultConnectSettle is how long Connect waits for the tunnel after launch.
	DefaultConnectSettle = 10 * time.Second
	// DefaultDisconnectSettle is how long Disconnect waits after stopping the client.
	DefaultDisconnectSettle = 5 * time.Second
)

var (
	ErrLaunch           = errors.New("vpn client launch failed")
	ErrTunnelUnverified = errors.New("vpn tunnel could not be verified")
)

// Config represents the configuration for a VPN controller.
type Config struct {
	System    System
	Binary    string // defaults to the client's usual binary name
	ConfigDir string // relative endpoint config files are resolved here
	AuthFile  string // credentials file, OpenVPN only

	// Settle delays; zero values take the defaults in NewController.
	ConnectSettle    time.Duration
	DisconnectSettle time.Duration

	// Verifier is optional. When set, Connect runs it after the settle delay
	// and fails if the tunnel does not pass.
	Verifier Verifier
}

// Verifier checks that traffic actually flows through the tunnel.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Session is the state of one connected tunnel. It is created by Connect and
// must be handed back to Disconnect by its owner.
type Session struct {
	Endpoint        models.Endpoint
	ConfigPath      string
	StartedAt       time.Time
	ConnectDuration time.Duration
}

// Controller starts and stops the VPN client.
//
// Connect returns a nil Session only when nothing was launched. Once the client
// launch has been issued a Session is returned, even together with an error, and
// the caller must pass it to Disconnect.
//
// Disconnect is best effort and never fails the caller; problems are logged.
type Controller interface {
	Connect(ctx context.Context, ep models.Endpoint) (*Session, error)
	Disconnect(ctx context.Context, s *Session)
}
