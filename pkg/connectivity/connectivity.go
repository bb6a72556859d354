// Package connectivity checks that DNS over TCP works through the current route,
// which is used to confirm a VPN tunnel carries traffic after connect.
package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/Jigsaw-Code/outline-sdk/dns"
	"github.com/Jigsaw-Code/outline-sdk/x/configurl"
	"github.com/Jigsaw-Code/outline-sdk/x/connectivity"
)

const (
	DefaultResolver = "1.1.1.1"
	DefaultDomain   = "example.com"
	DefaultTimeout  = 10 * time.Second
)

type Report struct {
	Resolver   string     `json:"resolver"`
	Domain     string     `json:"domain"`
	Time       time.Time  `json:"time"`
	DurationMs int64      `json:"duration_ms"`
	Error      *errorJSON `json:"error,omitempty"`
}

type errorJSON struct {
	Op string `json:"op,omitempty"`
	// Posix error, when available
	PosixError string `json:"posix_error,omitempty"`
	Msg        string `json:"msg,omitempty"`
	MsgVerbose string `json:"msg_verbose,omitempty"`
}

func (r Report) IsSuccess() bool {
	return r.Error == nil
}

func makeErrorRecord(result *connectivity.ConnectivityError) *errorJSON {
	if result == nil {
		return nil
	}
	record := new(errorJSON)
	record.Op = result.Op
	record.PosixError = result.PosixError
	record.Msg = findBaseError(result.Err).Error()
	record.MsgVerbose = result.Err.Error()
	return record
}

// findBaseError unwraps an error chain to find the most basic underlying error
func findBaseError(err error) error {
	for err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			errs := joined.Unwrap()
			if len(errs) > 0 {
				// the last joined error is usually the most specific one
				err = errs[len(errs)-1]
				continue
			}
		}

		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
	return err
}

// Checker resolves Domain through Resolver over TCP using the host's current
// routes. Transport is an outline-sdk config string; empty means direct.
type Checker struct {
	Resolver  string
	Domain    string
	Transport string
	Timeout   time.Duration

	logger *slog.Logger
}

func NewChecker(resolver, domain string, logger *slog.Logger) *Checker {
	if resolver == "" {
		resolver = DefaultResolver
	}
	if domain == "" {
		domain = DefaultDomain
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		Resolver: resolver,
		Domain:   domain,
		Timeout:  DefaultTimeout,
		logger:   logger,
	}
}

func (c *Checker) resolverAddress() string {
	if _, _, err := net.SplitHostPort(c.Resolver); err == nil {
		return c.Resolver
	}
	return net.JoinHostPort(c.Resolver, "53")
}

// Test runs one connectivity test. A returned error means the test could not be
// set up; a failed test is reported in Report.Error.
func (c *Checker) Test(ctx context.Context) (Report, error) {
	streamDialer, err := configurl.NewDefaultConfigToDialer().NewStreamDialer(c.Transport)
	if err != nil {
		return Report{}, fmt.Errorf("failed to create dialer: %w", err)
	}
	resolverAddress := c.resolverAddress()
	resolver := dns.NewTCPResolver(streamDialer, resolverAddress)

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	testCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := connectivity.TestConnectivityWithResolver(testCtx, resolver, c.Domain)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Resolver:   resolverAddress,
		Domain:     c.Domain,
		Time:       start.UTC().Truncate(time.Second),
		DurationMs: time.Since(start).Milliseconds(),
		Error:      makeErrorRecord(result),
	}, nil
}

// Verify fails unless the connectivity test succeeds.
func (c *Checker) Verify(ctx context.Context) error {
	report, err := c.Test(ctx)
	if err != nil {
		return err
	}
	if !report.IsSuccess() {
		c.logger.Warn("Connectivity test failed",
			"resolver", report.Resolver,
			"op", report.Error.Op,
			"error", report.Error.MsgVerbose)
		return fmt.Errorf("%s via %s: %s", report.Error.Op, report.Resolver, report.Error.Msg)
	}
	c.logger.Debug("Connectivity test passed", "resolver", report.Resolver, "durationMs", report.DurationMs)
	return nil
}
