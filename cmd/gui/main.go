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
	"sync"
	"syscall"

	"github.com/skobkin/camwatch/internal/app"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/platform"
	"github.com/skobkin/camwatch/internal/ui"
)

type launchOptions struct {
	StartHidden bool
	Address     string
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	var opts launchOptions

	fs := flag.NewFlagSet(app.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start with the main window hidden in the tray")
	fs.StringVar(&opts.Address, "address", "", "camera IPv4 address to prefill instead of the last connection")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	opts.Address = strings.TrimSpace(opts.Address)
	if opts.Address != "" && !domain.ValidateAddress(opts.Address) {
		return launchOptions{}, fmt.Errorf("invalid camera address %q", opts.Address)
	}

	return opts, nil
}

func main() {
	opts, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	lock, err := platform.AcquireInstanceLock(app.Name)
	switch {
	case errors.Is(err, platform.ErrInstanceAlreadyRunning):
		if pid, ok := platform.InstanceLockOwner(app.Name); ok {
			slog.Error("another instance is already running", "pid", pid)
		} else {
			slog.Error("another instance is already running")
		}
		os.Exit(1)
	case errors.Is(err, platform.ErrInstanceLockUnsupported):
		slog.Warn("single instance lock is not supported on this platform")
	case err != nil:
		slog.Error("acquire instance lock", "error", err)
		os.Exit(1)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("release instance lock", "error", releaseErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			if closeErr := rt.Close(); closeErr != nil {
				slog.Warn("close app runtime", "error", closeErr)
			}
		})
	}
	defer closeRuntime()

	dep := ui.BuildRuntimeDependencies(rt, ui.LaunchOptions{StartHidden: opts.StartHidden, Address: opts.Address}, func() {
		stop()
		closeRuntime()
	})
	if err := ui.Run(dep); err != nil {
		slog.Error("run ui", "error", err)
		closeRuntime()
		os.Exit(1)
	}
}
