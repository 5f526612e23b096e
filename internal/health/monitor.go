package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/loqalabs/loqa-sign/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// State is the connection status of the recognition backend.
type State int

const (
	Unknown State = iota
	Connected
	Unavailable
	Offline
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Unavailable:
		return "unavailable"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Label is the user-facing status line.
func (s State) Label() string {
	switch s {
	case Connected:
		return "Connected"
	case Unavailable:
		return "Backend unavailable"
	case Offline:
		return "Backend offline"
	default:
		return "Checking connection..."
	}
}

// ErrUnavailable is returned by probers when the backend answered but did not
// report itself healthy.
var ErrUnavailable = errors.New("backend unavailable")

// Prober issues a single liveness probe.
type Prober interface {
	Probe(ctx context.Context) error
}

// Monitor probes the backend on start and then on a fixed interval.
type Monitor struct {
	interval time.Duration
	timeout  time.Duration
	prober   Prober
	log      *slog.Logger

	mu    sync.RWMutex
	state State

	subMu sync.Mutex
	subs  []func(State)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	meter  metric.Meter
	probes metric.Int64Counter
}

func NewMonitor(cfg config.HealthConfig, prober Prober, log *slog.Logger) *Monitor {
	m := &Monitor{
		interval: time.Duration(cfg.IntervalMS) * time.Millisecond,
		timeout:  time.Duration(cfg.TimeoutMS) * time.Millisecond,
		prober:   prober,
		log:      log.With(slog.String("component", "health-monitor")),
		meter:    otel.Meter("github.com/loqalabs/loqa-sign/health"),
	}
	if err := m.initMetrics(); err != nil {
		m.log.Warn("failed to initialize metrics", slog.String("error", err.Error()))
	}
	return m
}

// Start probes immediately and then every interval until ctx is done or Close
// is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Check(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

func (m *Monitor) Close() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Check runs one probe and applies its outcome.
func (m *Monitor) Check(ctx context.Context) State {
	probeCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := m.prober.Probe(probeCtx)
	if ctx.Err() != nil {
		// Stopped mid-probe; the outcome says nothing about the backend.
		return m.State()
	}
	next := Connected
	switch {
	case err == nil:
	case errors.Is(err, ErrUnavailable):
		next = Unavailable
	default:
		next = Offline
	}
	if m.probes != nil {
		m.probes.Add(ctx, 1, metric.WithAttributes(stateAttr(next)))
	}
	if err != nil {
		m.log.Debug("health probe failed", slog.String("error", err.Error()))
	}
	m.set(next)
	return next
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) Label() string { return m.State().Label() }

func (m *Monitor) Connected() bool { return m.State() == Connected }

// Subscribe registers fn for state changes. fn runs on the probing goroutine.
func (m *Monitor) Subscribe(fn func(State)) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subs = append(m.subs, fn)
}

func (m *Monitor) set(next State) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev == next {
		return
	}
	m.log.Info("connection state changed", slog.String("from", prev.String()), slog.String("to", next.String()))

	m.subMu.Lock()
	subs := append([]func(State){}, m.subs...)
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(next)
	}
}
