package models

import "fmt"

// Endpoint is one VPN location read from the locations document.
type Endpoint struct {
	Country    string `mapstructure:"country" json:"country" validate:"required"`
	City       string `mapstructure:"city" json:"city" validate:"required"`
	ConfigFile string `mapstructure:"ovpnConfigFile" json:"ovpnConfigFile" validate:"required"`
}

// Label is the display name used in reports and logs.
func (e Endpoint) Label() string {
	return fmt.Sprintf("%s, %s", e.City, e.Country)
}

func (e Endpoint) String() string {
	return e.Label()
}
