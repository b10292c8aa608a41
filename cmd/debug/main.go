package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/notifications"
)

const clearHistoryTimeout = 5 * time.Second

type debugOptions struct {
	Host         string
	ListenFor    time.Duration
	Notify       bool
	ClearHistory bool
}

func parseDebugOptions(args []string) (debugOptions, error) {
	var opts debugOptions

	fs := flag.NewFlagSet("camwatch-debug", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Host, "host", "", "camera IPv4 address; defaults to the last connected one")
	fs.DurationVar(&opts.ListenFor, "listen-for", 0, "disconnect after this duration, e.g. 30s")
	fs.BoolVar(&opts.Notify, "notify", false, "send desktop notifications on connection changes")
	fs.BoolVar(&opts.ClearHistory, "clear-history", false, "forget stored addresses and exit")
	if err := fs.Parse(args); err != nil {
		return debugOptions{}, err
	}
	if fs.NArg() > 0 {
		return debugOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.ListenFor < 0 {
		return debugOptions{}, fmt.Errorf("listen duration must not be negative: %s", opts.ListenFor)
	}
	opts.Host = strings.TrimSpace(opts.Host)

	return opts, nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("run debug tool", "error", err)
		os.Exit(1)
	}
}

func run() error {
	opts, err := parseDebugOptions(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialize app runtime: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			slog.Warn("close app runtime", "error", closeErr)
		}
	}()

	logger := rt.LogManager.Logger("cli")
	logger.Info("starting camwatch debug", "version", app.BuildVersionWithDate())

	if opts.ClearHistory {
		clearCtx, cancel := context.WithTimeout(ctx, clearHistoryTimeout)
		defer cancel()
		if err := rt.ClearHistory(clearCtx); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		logger.Info("address history cleared")

		return nil
	}

	host := opts.Host
	if host == "" {
		host = rt.InitialAddress
	}
	if host == "" {
		return errors.New("missing camera address: set --host or connect once from the GUI")
	}

	if opts.Notify {
		stopNotifications := rt.StartNotifications(notifications.NewDesktopSender(rt.LogManager.Logger("notifications")), func() bool { return false })
		defer stopNotifications()
	}

	done := watch(ctx, rt.Bus, logger)

	if err := rt.Controller.Connect(host); err != nil {
		return fmt.Errorf("connect %q: %w", host, err)
	}

	if opts.ListenFor > 0 {
		logger.Info("listen mode", "duration", opts.ListenFor)
		select {
		case <-ctx.Done():
		case <-done:
		case <-time.After(opts.ListenFor):
		}
	} else {
		logger.Info("listening until interrupt or disconnect")
		select {
		case <-ctx.Done():
		case <-done:
		}
	}
	rt.Controller.Disconnect()

	return nil
}

// watch logs bus traffic until ctx ends. The returned channel is closed when
// the connection attempt reaches a terminal state.
func watch(ctx context.Context, b bus.MessageBus, logger *slog.Logger) <-chan struct{} {
	topics := []string{
		connectors.TopicConnStatus,
		connectors.TopicDashboard,
		connectors.TopicTelemetry,
		connectors.TopicFrameRate,
	}
	sub := b.Subscribe(topics...)
	done := make(chan struct{})

	go func() {
		var closed bool
		finish := func() {
			if !closed {
				closed = true
				close(done)
			}
		}
		defer b.Unsubscribe(sub, topics...)
		defer finish()

		seenActive := false
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				switch msg := raw.(type) {
				case connectors.ConnectionStatus:
					logger.Info("conn", "state", msg.State, "address", msg.Address, "reason", msg.Reason, "error", msg.Err, "attempt", msg.AttemptID)
					switch msg.State {
					case connectors.ConnectionStateConnecting, connectors.ConnectionStateConnected:
						seenActive = true
					case connectors.ConnectionStateFailed, connectors.ConnectionStateIdle:
						if seenActive {
							finish()
						}
					}
				case domain.Dashboard:
					logger.Debug("dashboard", "status", msg.Status, "latency", msg.Latency, "loss", msg.PacketLoss, "fps", msg.FrameRate, "quality", msg.Quality)
				case domain.TelemetrySample:
					logger.Info("telemetry", sampleAttrs(msg)...)
				case connectors.FrameRate:
					logger.Info("frames", "count", msg.Frames, "attempt", msg.AttemptID)
				}
			}
		}
	}()

	return done
}

func sampleAttrs(s domain.TelemetrySample) []any {
	var attrs []any
	addFloat := func(key string, v *float64) {
		if v != nil {
			attrs = append(attrs, key, *v)
		}
	}
	addFloat("latency_ms", s.LatencyMS)
	addFloat("packet_loss_pct", s.PacketLossPct)
	addFloat("jitter_ms", s.JitterMS)
	addFloat("bandwidth_mbps", s.BandwidthMbps)
	addFloat("fps", s.FPS)
	if s.Resolution != nil {
		attrs = append(attrs, "resolution", *s.Resolution)
	}
	addFloat("server_fps", s.ServerFPS)
	addFloat("cpu_pct", s.CPUPercent)
	addFloat("mem_pct", s.MemPercent)

	return attrs
}
