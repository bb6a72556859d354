// Package report writes, reads and prints the run report document.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vpn-speedtest/pkg/models"
)

var ErrIOFailure = errors.New("report i/o failed")

// Write stores r as indented JSON at path, creating the parent directory if
// needed. The file is written to a temporary name first and renamed into place.
func Write(path string, r models.RunReport) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: ensure output directory %q: %v", ErrIOFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIOFailure, path, err)
	}
	return nil
}

// Marshal encodes r the way Write stores it. A report without locations still
// has an empty vpnStats array.
func Marshal(r models.RunReport) ([]byte, error) {
	if r.VPNStats == nil {
		r.VPNStats = []models.LocationResult{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Read parses a report previously written by Write.
func Read(path string) (models.RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RunReport{}, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	var r models.RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return models.RunReport{}, fmt.Errorf("%w: error parsing %s: %v", ErrIOFailure, path, err)
	}
	return r, nil
}
