package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-sign/internal/accumulator"
	"github.com/loqalabs/loqa-sign/internal/bus"
	"github.com/loqalabs/loqa-sign/internal/camera"
	"github.com/loqalabs/loqa-sign/internal/config"
	"github.com/loqalabs/loqa-sign/internal/eventstore"
	"github.com/loqalabs/loqa-sign/internal/health"
	"github.com/loqalabs/loqa-sign/internal/natsserver"
	"github.com/loqalabs/loqa-sign/internal/recognition"
	"github.com/loqalabs/loqa-sign/internal/router"
	"github.com/loqalabs/loqa-sign/internal/scheduler"
	"github.com/loqalabs/loqa-sign/internal/session"
	"github.com/loqalabs/loqa-sign/internal/translation"
)

// pipeline owns the session and every component attached to it. It is built
// once per runtime and torn down with it.
type pipeline struct {
	state      *session.Store
	acc        *accumulator.Machine
	sched      *scheduler.Scheduler
	monitor    *health.Monitor
	translator *translation.Manager
	cache      *translation.Cache
	events     *eventstore.Store
	nats       *natsserver.EmbeddedServer
	bus        *bus.Client
	commands   *router.Service
	log        *slog.Logger
}

func newPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *pipeline, err error) {
	p := &pipeline{log: log, state: session.New()}
	defer func() {
		if err != nil {
			p.close()
		}
	}()

	p.events, err = eventstore.Open(ctx, cfg.EventStore, log)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if err = p.events.BeginSession(ctx, p.state.ID(), cfg.RuntimeName); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	if cfg.Bus.Enabled {
		p.nats, err = natsserver.Start(cfg.Bus, log)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats: %w", err)
		}
		p.bus, err = bus.Connect(ctx, cfg.Bus, log)
		if err != nil {
			return nil, err
		}
	}
	publisher := bus.NewPublisher(p.bus, log)

	cam, err := camera.New(cfg.Camera)
	if err != nil {
		return nil, fmt.Errorf("create camera: %w", err)
	}
	rec, err := recognition.New(cfg.Recognition)
	if err != nil {
		return nil, fmt.Errorf("create recognizer: %w", err)
	}
	tr, err := translation.New(cfg.Translation)
	if err != nil {
		return nil, fmt.Errorf("create translator: %w", err)
	}
	if cfg.Translation.CacheDir != "" {
		p.cache, err = translation.OpenCache(cfg.Translation.CacheDir, 0)
		if err != nil {
			return nil, err
		}
		tr = translation.WithCache(tr, p.cache, cfg.Translation.TargetLanguage, log)
	}

	var prober health.Prober
	if cfg.Recognition.Mode == "mock" {
		prober = health.ProberFunc(func(context.Context) error { return nil })
	} else {
		prober = health.NewHTTPProber(cfg.Recognition.Endpoint, cfg.Health.Path)
	}

	p.monitor = health.NewMonitor(cfg.Health, prober, log)
	p.acc = accumulator.New(p.state, cfg.Accumulator, log)
	p.sched = scheduler.New(cfg.Capture, time.Duration(cfg.Recognition.TimeoutMS)*time.Millisecond,
		cam, rec, p.acc, p.monitor, p.state, log)
	p.translator = translation.NewManager(p.state, tr, cfg.Translation.TargetLanguage,
		time.Duration(cfg.Translation.TimeoutMS)*time.Millisecond, log)

	p.state.Observe(p.events.Observer(context.WithoutCancel(ctx)))
	p.state.Observe(publisher.OnSessionEvent)
	p.monitor.Subscribe(func(health.State) { p.sched.Reconcile() })
	p.monitor.Subscribe(publisher.OnConnectionChange)

	p.commands = router.NewService(ctx, p.bus, p.state, p.acc, p.sched, p.translator, log)
	if err = p.commands.Start(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *pipeline) start(ctx context.Context) {
	p.monitor.Start(ctx)
	p.sched.Start(ctx)
	p.log.Info("pipeline started", slog.String("session_id", p.state.ID()))
}

// healthy reports whether the bus connection and command subscription are
// usable. Without a bus there is nothing to check.
func (p *pipeline) healthy() bool {
	if p.bus != nil && !p.bus.Healthy() {
		return false
	}
	return p.commands == nil || p.commands.Healthy()
}

func (p *pipeline) api() *api {
	return &api{
		state:      p.state,
		acc:        p.acc,
		sched:      p.sched,
		monitor:    p.monitor,
		translator: p.translator,
		events:     p.events,
		log:        p.log.With(slog.String("component", "api")),
	}
}

// close stops components in reverse dependency order. It tolerates a
// partially built pipeline.
func (p *pipeline) close() {
	if p.commands != nil {
		p.commands.Close()
	}
	if p.sched != nil {
		p.sched.Close()
	}
	if p.monitor != nil {
		p.monitor.Close()
	}
	if p.translator != nil {
		p.translator.Close()
	}
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.log.Warn("translation cache close failed", slog.String("error", err.Error()))
		}
	}
	if p.bus != nil {
		p.bus.Close()
	}
	p.nats.Shutdown()
	if p.events != nil {
		if err := p.events.Close(); err != nil {
			p.log.Warn("event store close failed", slog.String("error", err.Error()))
		}
	}
}
