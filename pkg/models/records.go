package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RunRecord is the persisted form of a RunReport header and its baseline.
type RunRecord struct {
	bun.BaseModel `bun:"table:speed_runs,alias:sr"`

	ID                   string    `bun:",pk"`
	MachineName          string    `bun:",notnull"`
	OS                   string    `bun:",notnull"`
	StartedAt            time.Time `bun:",notnull"`
	FinishedAt           time.Time `bun:",notnull"`
	BaselineDownloadMbps float64   `bun:",notnull"`
	BaselineUploadMbps   float64   `bun:",notnull"`
	BaselinePingMs       float64   `bun:",notnull"`
	LocationCount        int       `bun:",notnull"`

	Locations []*LocationRecord `bun:"rel:has-many,join:id=run_id"`
}

// LocationRecord is one persisted LocationResult. Position keeps the configured order.
type LocationRecord struct {
	bun.BaseModel `bun:"table:speed_locations,alias:sl"`

	RunID                  string  `bun:",pk"`
	Position               int     `bun:",pk"`
	LocationName           string  `bun:",notnull"`
	ConnectDurationSeconds float64 `bun:",notnull"`
	DownloadMbps           float64 `bun:",notnull"`
	UploadMbps             float64 `bun:",notnull"`
	PingMs                 float64 `bun:",notnull"`
	EgressIP               string
	EgressCountry          string
}

// NewRunRecord flattens a report into its persisted rows.
func NewRunRecord(r RunReport) *RunRecord {
	rec := &RunRecord{
		ID:                   r.RunID,
		MachineName:          r.MachineName,
		OS:                   r.OS,
		StartedAt:            r.StartedAt,
		FinishedAt:           r.FinishedAt,
		BaselineDownloadMbps: r.WithoutVPN.DownloadMbps,
		BaselineUploadMbps:   r.WithoutVPN.UploadMbps,
		BaselinePingMs:       r.WithoutVPN.PingMs,
		LocationCount:        len(r.VPNStats),
	}
	for i, loc := range r.VPNStats {
		rec.Locations = append(rec.Locations, &LocationRecord{
			RunID:                  r.RunID,
			Position:               i,
			LocationName:           loc.LocationName,
			ConnectDurationSeconds: loc.ConnectDurationSeconds,
			DownloadMbps:           loc.Speed.DownloadMbps,
			UploadMbps:             loc.Speed.UploadMbps,
			PingMs:                 loc.Speed.PingMs,
			EgressIP:               loc.EgressIP,
			EgressCountry:          loc.EgressCountry,
		})
	}
	return rec
}

// Report rebuilds the report view of a persisted run.
func (r *RunRecord) Report() RunReport {
	rep := RunReport{
		RunID:       r.ID,
		MachineName: r.MachineName,
		OS:          r.OS,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		WithoutVPN: Measurement{
			DownloadMbps: r.BaselineDownloadMbps,
			UploadMbps:   r.BaselineUploadMbps,
			PingMs:       r.BaselinePingMs,
		},
		VPNStats: make([]LocationResult, 0, len(r.Locations)),
	}
	for _, loc := range r.Locations {
		rep.VPNStats = append(rep.VPNStats, LocationResult{
			LocationName:           loc.LocationName,
			ConnectDurationSeconds: loc.ConnectDurationSeconds,
			Speed: Measurement{
				DownloadMbps: loc.DownloadMbps,
				UploadMbps:   loc.UploadMbps,
				PingMs:       loc.PingMs,
			},
			EgressIP:      loc.EgressIP,
			EgressCountry: loc.EgressCountry,
		})
	}
	return rep
}
