// Package scheduler drives periodic frame capture and recognition.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loqalabs/loqa-sign/internal/camera"
	"github.com/loqalabs/loqa-sign/internal/config"
	"github.com/loqalabs/loqa-sign/internal/recognition"
	"github.com/loqalabs/loqa-sign/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrBusy is returned by Fire while a recognition request is in flight.
	ErrBusy = errors.New("recognition request in flight")
	// ErrNoFrame is returned by Fire when the camera has no still to offer.
	ErrNoFrame = errors.New("no frame available")
)

// Gate reports whether the recognition backend is reachable.
type Gate interface {
	Connected() bool
}

// Sink consumes recognition outcomes.
type Sink interface {
	Handle(ctx context.Context, result recognition.Result, err error)
}

// Scheduler fires every interval while auto-detection and the camera are
// enabled and the gate reports a connection. At most one recognition request
// is outstanding at a time.
type Scheduler struct {
	interval   time.Duration
	timeout    time.Duration
	camera     camera.Camera
	recognizer recognition.Recognizer
	sink       Sink
	gate       Gate
	state      *session.Store
	log        *slog.Logger

	mu            sync.Mutex
	parent        context.Context
	enabled       bool
	cameraEnabled bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup

	requests metric.Int64Counter
}

func New(cfg config.CaptureConfig, requestTimeout time.Duration, cam camera.Camera, rec recognition.Recognizer, sink Sink, gate Gate, state *session.Store, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		interval:      time.Duration(cfg.IntervalMS) * time.Millisecond,
		timeout:       requestTimeout,
		camera:        cam,
		recognizer:    rec,
		sink:          sink,
		gate:          gate,
		state:         state,
		log:           log.With(slog.String("component", "capture-scheduler")),
		enabled:       cfg.AutoDetect,
		cameraEnabled: cfg.CameraEnabled,
	}
	counter, err := otel.Meter("github.com/loqalabs/loqa-sign/scheduler").Int64Counter(
		"loqa.sign.recognition.requests", metric.WithDescription("Recognition requests by outcome"))
	if err != nil {
		s.log.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	s.requests = counter
	return s
}

// Start binds the scheduler to ctx and begins firing if all conditions hold.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.parent = ctx
	s.mu.Unlock()
	s.Reconcile()
}

// Close stops the periodic task and waits for any outstanding request.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.parent = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
	if !enabled {
		s.state.SetHandVisible(false)
	}
	s.Reconcile()
}

func (s *Scheduler) SetCameraEnabled(enabled bool) {
	s.mu.Lock()
	s.cameraEnabled = enabled
	s.mu.Unlock()
	if !enabled {
		s.state.SetHandVisible(false)
	}
	s.Reconcile()
}

func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Scheduler) CameraEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraEnabled
}

// Running reports whether the periodic task is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Reconcile starts or stops the periodic task to match the current toggles
// and connection state. It is called on every toggle and on health changes.
func (s *Scheduler) Reconcile() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.parent == nil {
		return
	}
	want := s.enabled && s.cameraEnabled && (s.gate == nil || s.gate.Connected())
	switch {
	case want && s.cancel == nil:
		ctx, cancel := context.WithCancel(s.parent)
		s.cancel = cancel
		s.wg.Add(1)
		go s.run(ctx)
		s.log.Info("capture started", slog.Duration("interval", s.interval))
	case !want && s.cancel != nil:
		s.cancel()
		s.cancel = nil
		s.log.Info("capture stopped")
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Fire(ctx); err != nil && !errors.Is(err, ErrBusy) {
				s.log.Debug("capture skipped", slog.String("error", err.Error()))
			}
		}
	}
}

// Fire performs one capture cycle. The in-flight flag is taken before the
// camera is asked for a frame and released when the request completes, on
// every path. The request itself runs detached from ctx so that disabling
// capture never aborts it; its result is still applied.
func (s *Scheduler) Fire(ctx context.Context) error {
	release, ok := s.state.TryBeginRecognition()
	if !ok {
		s.count(ctx, "busy")
		return ErrBusy
	}

	frame, err := s.camera.CaptureStill(ctx)
	if err != nil {
		release()
		return fmt.Errorf("%w: %v", ErrNoFrame, err)
	}

	reqCtx, cancel := s.requestContext(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer release()

		result, err := s.recognizer.Recognize(reqCtx, frame)
		if err != nil {
			s.count(reqCtx, "failure")
		} else {
			s.count(reqCtx, "success")
		}
		s.sink.Handle(reqCtx, result, err)
	}()
	return nil
}

// requestContext detaches from the periodic task so that stopping capture
// leaves an outstanding request to complete.
func (s *Scheduler) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.timeout > 0 {
		return context.WithTimeout(detached, s.timeout)
	}
	return context.WithCancel(detached)
}

func (s *Scheduler) count(ctx context.Context, outcome string) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
