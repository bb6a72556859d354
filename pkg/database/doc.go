// Package database keeps a history of finished runs in Postgres.
//
// Each report is stored as one row in speed_runs, holding the host, the run
// window and the baseline, plus one row per completed location in
// speed_locations. Skipped locations are not stored, the same as in the report
// file.
package database
