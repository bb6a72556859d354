package models

import "time"

type LocationResult struct {
	LocationName           string      `json:"locationName"`
	ConnectDurationSeconds float64     `json:"timeToConnectSeconds"`
	Speed                  Measurement `json:"vpnSpeed"`
	EgressIP               string      `json:"egressIp,omitempty"`
	EgressCountry          string      `json:"egressCountry,omitempty"`
}

// RunReport is built once at the end of a run. Locations that failed are absent
// from VPNStats; the order of the rest follows the locations document.
type RunReport struct {
	RunID       string           `json:"runId"`
	MachineName string           `json:"machineName"`
	OS          string           `json:"os"`
	StartedAt   time.Time        `json:"startedAt"`
	FinishedAt  time.Time        `json:"finishedAt"`
	WithoutVPN  Measurement      `json:"withoutVpn"`
	VPNStats    []LocationResult `json:"vpnStats"`
}
