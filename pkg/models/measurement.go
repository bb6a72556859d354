package models

import "fmt"

// Measurement is one normalized speed sample, or the rounded mean of several.
type Measurement struct {
	DownloadMbps float64 `json:"downloadMbps"`
	UploadMbps   float64 `json:"uploadMbps"`
	PingMs       float64 `json:"pingMs"`
}

func (m Measurement) String() string {
	return fmt.Sprintf("download %.2f Mbps, upload %.2f Mbps, ping %.2f ms", m.DownloadMbps, m.UploadMbps, m.PingMs)
}
