/*
Package measurement turns single speedtest probes into the per-location results of
a run. It holds the two pieces of the run with real failure handling: the sample
aggregator and the location coordinator.

Key Components:

  - Aggregator: runs a speedtest.Prober N times in sequence and averages the successes
  - Coordinator: wraps one aggregation in a VPN connect and a guaranteed disconnect

Aggregation Policy:

Probes never run concurrently; the speedtest saturates the link, so parallel runs
would corrupt each other. A failed probe, whatever the reason, is logged and
dropped. With ok successful samples out of sampleCount attempts the aggregation
succeeds only if

	ok > 0 && ok >= sampleCount-MaxDroppedSamples

so at most two samples may be lost and a single-sample run tolerates nothing.
The result is the field-wise mean of the successful samples only, rounded with
math.Round (halves away from zero).

Location Cycle:

	Idle -> Connecting -> Measuring -> Disconnecting -> Done

Connect failures are returned as ErrConnectFailure. If the VPN client was launched
before the failure, the session is still disconnected. After a successful connect
the disconnect runs exactly once whether the aggregation succeeded, failed with
ErrInsufficientSamples, or the context was cancelled; the disconnect itself is not
cancellable.

Usage Example:

	agg := measurement.NewAggregator(speedtest.NewOoklaProber("speedtest", logger), logger)
	baseline, err := agg.Aggregate(ctx, 5)
	if err != nil {
		return err
	}

	coord := measurement.NewCoordinator(controller, agg, logger)
	result, err := coord.RunForLocation(ctx, endpoint, 5)
	if err != nil {
		logger.Error("Skipping location", "location", endpoint.Label(), "error", err)
	}

Thread Safety:

Neither type is safe for concurrent use, and the VPN tunnel is process-wide
state: callers must run locations one at a time.
*/
package measurement
