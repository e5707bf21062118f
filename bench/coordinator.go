package bench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/AliceO2Group/ConfigurationBenchmark/backend"
	"github.com/AliceO2Group/ConfigurationBenchmark/monitoring"
	"github.com/AliceO2Group/ConfigurationBenchmark/report"
)

// Run executes one benchmark invocation: print the dataset, put it to
// every server, or fan out clients and time a synchronized get.
func Run(ctx context.Context, logger *slog.Logger, opts *Options) error {
	handler := NewHandler(opts.Structure, opts.Parameters, logger)

	switch {
	case opts.PrintParams:
		logger.Debug("printing parameters")

		return report.WriteCSV(os.Stdout, handler.Build())

	case opts.Put:
		return runPut(ctx, logger, opts, handler)

	default:
		return runGet(ctx, logger, opts, handler)
	}
}

// runPut writes the dataset to every configured server, so each one
// holds the full dataset before any client reads from it. Put runs are
// not timed and need no monitoring.
func runPut(
	ctx context.Context, logger *slog.Logger, opts *Options, handler *Handler,
) error {
	logger.Info("putting parameters",
		slog.Int("parameters", opts.Parameters),
		slog.Any("servers", opts.ServerURIs),
	)

	for _, uri := range opts.ServerURIs {
		be, err := backend.Dial(uri)
		if err != nil {
			return err
		}

		err = handler.Put(ctx, be)
		be.Close()

		if err != nil {
			return fmt.Errorf("put to %s: %w", uri, err)
		}
	}

	return nil
}

// runGet is the timed side of the benchmark. The original process spawns
// the remaining clients, then every client independently waits for the
// clock boundary, reads through one server and reports its samples.
// There is no coordination between clients beyond the shared boundary.
func runGet(
	ctx context.Context, logger *slog.Logger, opts *Options, handler *Handler,
) error {
	if opts.MonitoringURI == "" {
		return fmt.Errorf("monitoring URI required for get mode")
	}

	if !opts.Spawned && opts.Processes > 1 {
		if err := spawnClients(logger, opts); err != nil {
			return err
		}
	}

	sender, err := monitoring.Dial(opts.MonitoringURI)
	if err != nil {
		return err
	}
	defer sender.Close()

	if !opts.SkipWait {
		if err := waitBoundary(ctx, logger); err != nil {
			return err
		}
	}

	uri := SelectServer(opts.ServerURIs, os.Getpid())
	logger.Debug("selected server",
		slog.Int("pid", os.Getpid()),
		slog.String("uri", uri),
	)

	be, err := backend.Dial(uri)
	if err != nil {
		return err
	}
	defer be.Close()

	logger.Debug("getting from server")

	start := time.Now()
	if err := handler.Get(ctx, be); err != nil {
		return err
	}
	end := time.Now()

	logger.Info("get finished",
		slog.Duration("elapsed", end.Sub(start)),
		slog.Int("keys", len(handler.Returned())),
	)

	tags := opts.metricTags()

	for _, stamp := range []time.Time{start, end} {
		err := sender.SendTagged(ctx, stamp.UnixMilli(), "time", tags)
		if err != nil {
			return fmt.Errorf("send monitoring data: %w", err)
		}
	}

	if opts.SkipCheck {
		return nil
	}

	logger.Debug("checking parameters")

	if mismatches := handler.Verify(); mismatches > 0 {
		logger.Info("mismatches found", slog.Int("mismatches", mismatches))

		err := sender.SendTagged(ctx, int64(mismatches), "mismatches", tags)
		if err != nil {
			return fmt.Errorf("send monitoring data: %w", err)
		}
	}

	if opts.Verbose {
		err := report.WriteComparison(
			os.Stdout, handler.Generated(), handler.Returned(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// spawnClients starts processes-1 copies of this executable, each a
// fully independent client sharing nothing with the parent. The parent
// does not supervise them: once started, each client aligns itself to
// the clock boundary and reports its own samples.
func spawnClients(logger *slog.Logger, opts *Options) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate own executable: %w", err)
	}

	args := opts.childArgs()

	logger.Info("spawning clients",
		slog.Int("processes", opts.Processes),
		slog.String("executable", exe),
	)

	for i := 1; i < opts.Processes; i++ {
		cmd := exec.Command(exe, args...)
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("spawn client %d: %w", i, err)
		}

		// Detach: children outlive any handle we hold and are reaped
		// by the system once this process exits.
		if err := cmd.Process.Release(); err != nil {
			return fmt.Errorf("release client %d: %w", i, err)
		}
	}

	return nil
}

// SelectServer picks the endpoint a client reads from. With several
// servers the OS process id spreads independent clients round-robin
// across the list.
func SelectServer(uris []string, pid int) string {
	if len(uris) == 1 {
		return uris[0]
	}

	return uris[pid%len(uris)]
}

// NextBoundary returns the next instant after now whose seconds field is
// 10 past the minute. Independently started clients sleeping until the
// same boundary begin their timed reads approximately simultaneously
// without any coordination channel.
func NextBoundary(now time.Time) time.Time {
	boundary := now.Truncate(time.Minute).Add(10 * time.Second)
	if !boundary.After(now) {
		boundary = boundary.Add(time.Minute)
	}

	return boundary
}

func waitBoundary(ctx context.Context, logger *slog.Logger) error {
	boundary := NextBoundary(time.Now())

	logger.Debug("waiting for start boundary",
		slog.Time("boundary", boundary),
	)

	select {
	case <-time.After(time.Until(boundary)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
