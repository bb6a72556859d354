package speedtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vpn-speedtest/pkg/models"
	"vpn-speedtest/pkg/process"
)

const (
	// DefaultTimeout bounds one speedtest invocation.
	DefaultTimeout = 90 * time.Second
	DefaultBinary  = "speedtest"
)

// Prober performs a single speed measurement.
type Prober interface {
	MeasureOnce(ctx context.Context) (models.Measurement, error)
}

// OoklaProber runs the Ookla speedtest CLI. It never retries; retry policy
// belongs to the caller.
type OoklaProber struct {
	Binary  string
	Timeout time.Duration
	Run     process.Runner

	logger *slog.Logger
}

func NewOoklaProber(binary string, logger *slog.Logger) *OoklaProber {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OoklaProber{
		Binary:  binary,
		Timeout: DefaultTimeout,
		Run:     process.Exec,
		logger:  logger,
	}
}

func (p *OoklaProber) args() []string {
	return []string{"--accept-license", "--accept-gdpr", "--format=json"}
}

// MeasureOnce runs the speedtest binary once. It fails with ErrTimeout,
// a *ProcessError or ErrParseFailure.
func (p *OoklaProber) MeasureOnce(ctx context.Context) (models.Measurement, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := p.Run(runCtx, p.Binary, p.args()...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			p.logger.Error("Speedtest timed out", "timeout", timeout)
			return models.Measurement{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		if ctx.Err() != nil {
			return models.Measurement{}, ctx.Err()
		}
		p.logger.Error("Speedtest could not be started", "binary", p.Binary, "error", err)
		return models.Measurement{}, fmt.Errorf("%w: %v", ErrProcessFailure, err)
	}

	if res.ExitCode != 0 {
		p.logger.Error("Speedtest failed", "exitCode", res.ExitCode)
		return models.Measurement{}, &ProcessError{
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(string(res.Stderr)),
		}
	}

	m, err := ParseResult(res.Stdout)
	if err != nil {
		p.logger.Error("Error parsing speedtest output", "output", string(res.Stdout), "error", err)
		return models.Measurement{}, err
	}

	p.logger.Info("Speedtest result",
		"download", m.DownloadMbps,
		"upload", m.UploadMbps,
		"ping", m.PingMs,
		"duration", time.Since(start).Round(time.Millisecond))
	return m, nil
}
