package speedtest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"vpn-speedtest/pkg/models"
)

// bytesPerMegabit converts bytes/sec to Mbps: x8 bits, /1,000,000.
const bytesPerMegabit = 125000.0

// ooklaResult is the subset of `speedtest --format=json` output that is used.
type ooklaResult struct {
	Ping *struct {
		Latency float64 `json:"latency"`
	} `json:"ping"`
	Download *struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"download"`
	Upload *struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"upload"`
}

// ParseResult converts Ookla JSON output into a Measurement. Output that is not
// JSON, is the JSON null, carries none of the expected sections or holds a
// negative value fails with ErrParseFailure.
func ParseResult(out []byte) (models.Measurement, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return models.Measurement{}, fmt.Errorf("%w: empty output", ErrParseFailure)
	}

	var raw *ooklaResult
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return models.Measurement{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	if raw == nil || (raw.Ping == nil && raw.Download == nil && raw.Upload == nil) {
		return models.Measurement{}, fmt.Errorf("%w: output has no results", ErrParseFailure)
	}

	var m models.Measurement
	if raw.Download != nil {
		m.DownloadMbps = raw.Download.Bandwidth / bytesPerMegabit
	}
	if raw.Upload != nil {
		m.UploadMbps = raw.Upload.Bandwidth / bytesPerMegabit
	}
	if raw.Ping != nil {
		m.PingMs = raw.Ping.Latency
	}
	if m.DownloadMbps < 0 || m.UploadMbps < 0 || m.PingMs < 0 {
		return models.Measurement{}, fmt.Errorf("%w: negative value in %s", ErrParseFailure, m)
	}
	return m, nil
}
