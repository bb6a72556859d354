/*
Package models defines the data structures shared by the vpn-speedtest packages:
the normalized speed sample, the VPN endpoint definition, the per-location result
and the final run report, plus the bun models used to persist reports.

Core Types:

Measurement is a single speed sample or an aggregated (rounded mean) result:

	type Measurement struct {
		DownloadMbps float64 // Download bandwidth in megabits per second
		UploadMbps   float64 // Upload bandwidth in megabits per second
		PingMs       float64 // Idle latency in milliseconds
	}

Endpoint is one VPN location from the locations document:

	type Endpoint struct {
		Country    string // Display country
		City       string // Display city
		ConfigFile string // VPN client config file, relative to vpn.config_dir
	}

LocationResult is produced once per successfully completed location cycle:

	type LocationResult struct {
		LocationName           string      // "City, Country"
		ConnectDurationSeconds float64     // Launch plus settle delay, 2 decimals
		Speed                  Measurement // Aggregated speed over the tunnel
		EgressIP               string      // Public IP seen while connected (optional)
		EgressCountry          string      // Country of EgressIP (optional)
	}

RunReport is the write-once document produced at the end of a run. Locations that
failed are not represented; the report only lists completed locations, in the
order they were configured.

Database Integration:

RunRecord and LocationRecord map a report onto the speed_runs and speed_locations
tables. NewRunRecord flattens a report and RunRecord.Report rebuilds it:

	rec := models.NewRunRecord(report)
	// rec.Locations[i].Position == i

Thread Safety:

The model structures are plain values and are not synchronized. A run is processed
by a single goroutine so no synchronization is needed.
*/
package models
