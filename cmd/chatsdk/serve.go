package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/hubspot/mobile-chat-sdk-go/internal/api"
	"github.com/hubspot/mobile-chat-sdk-go/internal/config"
	"github.com/hubspot/mobile-chat-sdk-go/internal/handlers"
	"github.com/hubspot/mobile-chat-sdk-go/internal/logger"
	"github.com/hubspot/mobile-chat-sdk-go/internal/manager"
	"github.com/hubspot/mobile-chat-sdk-go/internal/properties"
	"github.com/hubspot/mobile-chat-sdk-go/internal/schedule"
	"github.com/hubspot/mobile-chat-sdk-go/internal/server"
	"github.com/hubspot/mobile-chat-sdk-go/internal/settings"
	"github.com/hubspot/mobile-chat-sdk-go/internal/watcher"
)

func runServe(configPath string) {
	fx.New(
		fx.Provide(
			func() (config.AppConfig, error) { return provideConfig(configPath) },
			provideLogger,
			provideSettings,
			provideAPIClient,
			provideManager,
			provideSDKSource,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewChatHandler),
			provideServerHandler(handlers.NewConfigHandler),
			provideServerHandler(handlers.NewUserHandler),
			provideServerHandler(provideBridgeHandler),
			provideServer,
		),
		fx.Invoke(
			bootstrapConfiguration,
			startResync,
			startWatcher,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig(path string) (config.AppConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.AppConfig) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideSettings(lc fx.Lifecycle, log *slog.Logger, cfg config.AppConfig) (*settings.Service, error) {
	if dir := filepath.Dir(cfg.Settings.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
	}
	store, err := settings.OpenSQLite(cfg.Settings.Path, settings.WithBusyTimeout(5*time.Second), settings.WithWAL(true))
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	svc := settings.NewService(log, store)
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return svc.Close() }})
	return svc, nil
}

func provideAPIClient(log *slog.Logger, cfg config.AppConfig) *api.Client {
	client := api.NewClient(log, nil)
	client.SetDebug(cfg.SDK.Debug)
	return client
}

func provideManager(lc fx.Lifecycle, log *slog.Logger, client *api.Client) *manager.Manager {
	m := manager.New(log, client, properties.RuntimeProvider{AppShortVersion: version, AppBuild: version})
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error {
		m.Close()
		return nil
	}})
	return m
}

func provideSDKSource(cfg config.AppConfig) config.Source {
	return config.FileSource{Path: cfg.SDK.ConfigPath}
}

func provideBridgeHandler(log *slog.Logger, m *manager.Manager, cfg config.AppConfig) *handlers.BridgeHandler {
	return handlers.NewBridgeHandler(log, m, cfg.Server.AllowedOrigins)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.AppConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

// bootstrapConfiguration applies stored overrides, else the SDK config
// file. Without either the process runs unconfigured.
func bootstrapConfiguration(log *slog.Logger, m *manager.Manager, svc *settings.Service, src config.Source) {
	cfg, ok, err := svc.OverrideConfiguration(context.Background())
	if err != nil {
		log.Warn("load config overrides failed", slog.Any("error", err))
	}
	if ok {
		log.Info("using config overrides", slog.String("portal_id", cfg.PortalID))
		m.Configure(cfg)
		return
	}
	if err := m.LoadConfiguration(src); err != nil {
		log.Warn("sdk not configured", slog.Any("error", err))
	}
}

func startResync(lc fx.Lifecycle, log *slog.Logger, cfg config.AppConfig, m *manager.Manager) error {
	if cfg.Push.ResyncSchedule == "" {
		return nil
	}
	resync, err := schedule.NewResync(log, "push_token_resync", cfg.Push.ResyncSchedule, m.SyncPushToken)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			resync.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return resync.Stop(ctx)
		},
	})
	return nil
}

func startWatcher(lc fx.Lifecycle, log *slog.Logger, cfg config.AppConfig, m *manager.Manager, svc *settings.Service, src config.Source) error {
	if !cfg.SDK.Watch {
		return nil
	}
	w, err := watcher.New(log, cfg.SDK.ConfigPath, watcher.DefaultDebounce, func() error {
		// Stored overrides take precedence over the file.
		if _, ok, err := svc.OverrideConfiguration(context.Background()); err == nil && ok {
			return nil
		}
		return m.LoadConfiguration(src)
	})
	if err != nil {
		return fmt.Errorf("watch sdk config: %w", err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return w.Start() },
		OnStop:  func(ctx context.Context) error { return w.Stop() },
	})
	return nil
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting chat SDK harness %s\n", version)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
