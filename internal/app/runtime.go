package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/skobkin/camwatch/internal/bus"
	"github.com/skobkin/camwatch/internal/config"
	"github.com/skobkin/camwatch/internal/connectors"
	"github.com/skobkin/camwatch/internal/domain"
	"github.com/skobkin/camwatch/internal/lifecycle"
	"github.com/skobkin/camwatch/internal/logging"
	"github.com/skobkin/camwatch/internal/messages"
	"github.com/skobkin/camwatch/internal/notifications"
	"github.com/skobkin/camwatch/internal/persistence"
	"github.com/skobkin/camwatch/internal/transport"
)

const writerDrainTimeout = 3 * time.Second

type Runtime struct {
	mu sync.RWMutex

	Ctx    context.Context
	cancel context.CancelFunc

	Paths  Paths
	Config config.AppConfig

	LogManager *logging.Manager
	Bus        *bus.PubSubBus
	DB         *sql.DB

	KVRepo      *persistence.KVRepo
	HistoryRepo *persistence.HistoryRepo
	WriterQueue *persistence.WriterQueue

	Messages   *messages.Table
	Video      *transport.MJPEGSurface
	Telemetry  *transport.SocketIODialer
	Controller *lifecycle.Controller

	// InitialAddress is the last successfully connected address, used to prefill the input.
	InitialAddress string

	connStatusMu    sync.RWMutex
	connStatus      connectors.ConnectionStatus
	connStatusKnown bool

	closeOnce sync.Once
}

func Initialize(parent context.Context) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}

	return InitializeWithPaths(parent, paths)
}

// InitializeWithPaths builds the runtime around the given file layout.
func InitializeWithPaths(parent context.Context, paths Paths) (*Runtime, error) {
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	rt := &Runtime{
		Ctx:    ctx,
		cancel: cancel,
		Paths:  paths,
		Config: cfg,
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging, paths.LogFile); err != nil {
		_ = logMgr.Close()
		cancel()

		return nil, fmt.Errorf("configure logging: %w", err)
	}
	rt.LogManager = logMgr
	slog.Info("starting camwatch runtime", "version", BuildVersion(), "build_date", BuildDateYMD(), "language", cfg.UI.Language)

	db, err := persistence.Open(ctx, paths.DBFile)
	if err != nil {
		_ = rt.Close()

		return nil, err
	}
	rt.DB = db
	rt.KVRepo = persistence.NewKVRepo(db)
	rt.HistoryRepo = persistence.NewHistoryRepo(db)
	rt.InitialAddress = domain.LoadInitialAddress(ctx, rt.KVRepo, logMgr.Logger("persistence"))

	b := bus.New(logMgr.Logger("bus"))
	rt.Bus = b
	connSub := b.Subscribe(connectors.TopicConnStatus)
	go rt.captureConnStatus(ctx, connSub)

	writerQueue := persistence.NewWriterQueue(logMgr.Logger("persistence"), writerQueueCapacity)
	writerQueue.Start(ctx)
	rt.WriterQueue = writerQueue
	recorder := domain.NewQueuedRecorder(writerQueue, rt.KVRepo, rt.HistoryRepo, logMgr.Logger("recorder"))

	texts, err := messages.New(cfg.UI.Language, logMgr.Logger("messages"))
	if err != nil {
		_ = rt.Close()

		return nil, fmt.Errorf("load messages: %w", err)
	}
	rt.Messages = texts
	logMgr.Logger("messages").Info("messages loaded", "language", texts.Language())

	rt.Video = transport.NewMJPEGSurface(&http.Client{})
	rt.Video.UserAgent = UserAgent()
	rt.Telemetry = transport.NewSocketIODialer()
	rt.Telemetry.UserAgent = UserAgent()

	rt.Controller = lifecycle.NewController(lifecycle.OptionsFromConfig(cfg.Connection), lifecycle.Deps{
		Bus:      b,
		Surface:  rt.Video,
		Dialer:   rt.Telemetry,
		Recorder: recorder,
		Messages: texts,
		Logger:   logMgr.Logger("lifecycle"),
	})

	return rt, nil
}

func (r *Runtime) captureConnStatus(ctx context.Context, sub bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-sub:
			if !ok {
				return
			}
			status, ok := raw.(connectors.ConnectionStatus)
			if !ok {
				continue
			}
			r.setConnStatus(status)
		}
	}
}

func (r *Runtime) setConnStatus(status connectors.ConnectionStatus) {
	r.connStatusMu.Lock()
	r.connStatus = status
	r.connStatusKnown = true
	r.connStatusMu.Unlock()
}

func (r *Runtime) CurrentConnStatus() (connectors.ConnectionStatus, bool) {
	r.connStatusMu.RLock()
	status := r.connStatus
	known := r.connStatusKnown
	r.connStatusMu.RUnlock()

	return status, known
}

func (r *Runtime) CurrentConfig() config.AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Config
}

// StartNotifications forwards connection transitions to sender until the
// returned stop function is called or the runtime closes.
func (r *Runtime) StartNotifications(sender notifications.Sender, isForeground func() bool) func() {
	ctx, stop := context.WithCancel(r.Ctx)
	NewNotificationService(
		r.Bus,
		r.Messages,
		r.CurrentConfig,
		isForeground,
		sender,
		r.LogManager.Logger("app.notifications"),
	).Start(ctx)

	return stop
}

// RecentAddresses lists the most recently connected addresses, newest first.
func (r *Runtime) RecentAddresses(ctx context.Context) ([]string, error) {
	if r.HistoryRepo == nil {
		return nil, nil
	}
	entries, err := r.HistoryRepo.ListRecent(ctx, RecentAddressesLimit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Address)
	}

	return out, nil
}

// ClearHistory forgets the last connection and the recent address list.
func (r *Runtime) ClearHistory(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := persistence.ClearDatabase(ctx, r.DB)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.InitialAddress = ""
	r.mu.Unlock()
	slog.Info("connection history cleared", "connections", res.Connections, "settings", res.Settings)

	return nil
}

func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		if r.Controller != nil {
			r.Controller.Close()
		}
		if r.cancel != nil {
			r.cancel()
		}
		if r.WriterQueue != nil {
			select {
			case <-r.WriterQueue.Done():
			case <-time.After(writerDrainTimeout):
				slog.Warn("persistence writer did not drain in time")
			}
		}
		if r.Bus != nil {
			r.Bus.Close()
		}
		if r.DB != nil {
			_ = r.DB.Close()
		}
		if r.LogManager != nil {
			_ = r.LogManager.Close()
		}
	})

	return nil
}
