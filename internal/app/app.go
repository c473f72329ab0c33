package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"ElectionWatcher/internal/config"
	"ElectionWatcher/internal/infrastructure/broker"
	"ElectionWatcher/internal/infrastructure/console"
	"ElectionWatcher/internal/infrastructure/discord"
	"ElectionWatcher/internal/infrastructure/fetcher"
	"ElectionWatcher/internal/infrastructure/httpserver"
	"ElectionWatcher/internal/infrastructure/llm"
	"ElectionWatcher/internal/infrastructure/parser"
	"ElectionWatcher/internal/infrastructure/renderer"
	"ElectionWatcher/internal/infrastructure/scheduler"
	"ElectionWatcher/internal/infrastructure/storage"
	"ElectionWatcher/internal/infrastructure/telegram"
	"ElectionWatcher/internal/logging"
	"ElectionWatcher/internal/metrics"
	"ElectionWatcher/internal/ports"
	"ElectionWatcher/internal/site"
	"ElectionWatcher/internal/usecase"
)

const (
	metricsNamespace = "electionwatcher"
	shutdownTimeout  = 10 * time.Second
)

// Options carries the process streams used by the interactive confirmer.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	poller   *usecase.Poller
	registry *prometheus.Registry
	closers  []func() error
}

// New validates the configuration and builds every collaborator. Any error
// here is a startup failure and the process should exit.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ensureWritableDir(cfg.Poller.OutputDir); err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	bindings, err := bindSites(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg.Notifications)
	if err != nil {
		return nil, err
	}

	var imageRenderer ports.Renderer
	if cfg.Renderer.Command != "" {
		r, err := renderer.NewCommandRenderer(
			cfg.Renderer.Command,
			cfg.Renderer.Args,
			time.Duration(cfg.Renderer.TimeoutSeconds)*time.Second,
			logging.Component(baseLogger, "renderer"),
		)
		if err != nil {
			return nil, err
		}
		imageRenderer = r
	}

	var translator ports.Translator
	if cfg.Translator.Enabled {
		if cfg.Translator.APIKey == "" {
			return nil, fmt.Errorf("translator enabled without an api key")
		}
		translator = llm.NewTranslator(cfg.Translator)
	}

	var history ports.DispatchRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open dispatch history: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		history = storage.NewDispatchRepository(db, cfg.Database.Driver)
	}

	var publisher ports.RecordPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := broker.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		publisher = p
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer := metrics.NewPollerMetrics(a.registry, metricsNamespace)

	var confirmer ports.Confirmer
	if cfg.Poller.Confirm {
		in, out := opts.Stdin, opts.Stdout
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		confirmer = console.NewConfirmer(in, out)
	}

	dispatcher := usecase.NewDispatcher(usecase.DispatcherDeps{
		OutputDir: cfg.Poller.OutputDir,
		Mention: usecase.Mention{
			Kind: cfg.Notifications.Mention.Kind,
			ID:   cfg.Notifications.Mention.ID,
		},
		Notifier:   notifier,
		Renderer:   imageRenderer,
		Translator: translator,
		Publisher:  publisher,
		History:    history,
		Logger:     logging.Component(baseLogger, "dispatcher"),
	})

	a.poller = usecase.NewPoller(usecase.PollerDeps{
		Sites:      bindings,
		Dispatcher: dispatcher,
		Confirmer:  confirmer,
		Observer:   observer,
		Logger:     logging.Component(baseLogger, "poller"),
	})

	baseLogger.Info("election watcher configured",
		"sites", len(bindings),
		"interval", cfg.Poller.Interval(),
		"output_dir", cfg.Poller.OutputDir,
		"notifier", cfg.Notifications.Kind,
		"renderer", imageRenderer != nil,
		"history", history != nil,
		"kafka", publisher != nil,
	)

	return a, nil
}

// Run polls on the configured interval until ctx is cancelled. The metrics
// server, when enabled, runs alongside and shuts down with it.
func (a *Application) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if addr := a.cfg.HTTP.ListenAddr; addr != "" {
		server := httpserver.New(addr, a.registry, logging.Component(a.logger, "http"))
		group.Go(func() error {
			return server.Run(ctx)
		})
	}

	group.Go(func() error {
		driver := scheduler.NewIntervalScheduler(a.cfg.Poller.Interval())
		loop := usecase.NewScheduler(driver, a.poller, logging.Component(a.logger, "scheduler"))
		if err := loop.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}

		<-ctx.Done()
		a.logger.Info("stopping poll loop")

		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return loop.Stop(stopCtx)
	})

	return group.Wait()
}

// RunOnce executes a single poll cycle over every site.
func (a *Application) RunOnce(ctx context.Context) error {
	return a.poller.RunCycle(ctx)
}

// Close releases the history database and the broker writer.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func bindSites(cfg config.Config, logger *slog.Logger) ([]usecase.SiteBinding, error) {
	client := fetcher.New(fetcher.Options{
		Timeout:   cfg.Fetch.Timeout(),
		UserAgent: cfg.Fetch.UserAgent,
	}, logging.Component(logger, "fetcher"))

	registry := site.NewRegistry()
	registry.Register(parser.NewDivisionAdapter(client, nil, logging.Component(logger, "adapter.division")))
	registry.Register(parser.NewNationalAdapter(client, nil, logging.Component(logger, "adapter.single_page")))

	bindings := make([]usecase.SiteBinding, 0, len(cfg.Sites))
	for _, sc := range cfg.Sites {
		adapter, err := registry.Resolve(sc.Adapter)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", sc.Name, err)
		}
		bindings = append(bindings, usecase.SiteBinding{
			Target: site.Target{
				Name:      sc.Name,
				Label:     sc.Label,
				SourceURL: sc.SourceURL,
				BaseURL:   sc.BaseURL,
			},
			Adapter: adapter,
		})
	}
	return bindings, nil
}

func newNotifier(cfg config.NotificationConfig) (ports.Notifier, error) {
	switch cfg.Kind {
	case config.NotifierDiscord:
		if cfg.Discord.WebhookURL == "" {
			return nil, fmt.Errorf("discord notifier needs a webhook url")
		}
		return discord.NewNotifier(cfg.Discord.WebhookURL), nil
	case config.NotifierTelegram:
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram notifier needs a bot token and chat id")
		}
		n := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if cfg.Telegram.APIBase != "" {
			n.WithAPIBase(cfg.Telegram.APIBase)
		}
		return n, nil
	case config.NotifierNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown notifier kind %q", cfg.Kind)
}

// ensureWritableDir creates dir and proves a file can be written into it.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("output dir %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(filepath.Clean(name))
}
