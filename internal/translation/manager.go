package translation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/loqalabs/loqa-sign/internal/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Manager runs at most one translation of the session text at a time.
type Manager struct {
	state      *session.Store
	translator Translator
	language   string
	timeout    time.Duration
	log        *slog.Logger
	wg         sync.WaitGroup

	requests metric.Int64Counter
}

func NewManager(state *session.Store, translator Translator, language string, timeout time.Duration, log *slog.Logger) *Manager {
	m := &Manager{
		state:      state,
		translator: translator,
		language:   language,
		timeout:    timeout,
		log:        log.With(slog.String("component", "translation-manager")),
	}
	counter, err := otel.Meter("github.com/loqalabs/loqa-sign/translation").Int64Counter(
		"loqa.sign.translation.requests", metric.WithDescription("Translation requests by outcome"))
	if err != nil {
		m.log.Warn("failed to create counter", slog.String("error", err.Error()))
	}
	m.requests = counter
	return m
}

// Translate submits the current text and blocks until the backend answers.
// On failure the previous translation is kept.
func (m *Manager) Translate(ctx context.Context) error {
	text, release, err := m.begin()
	if err != nil {
		return err
	}
	defer release()
	return m.run(ctx, text)
}

// TranslateAsync takes the in-flight guard synchronously and runs the
// request in the background. Failures are only logged.
func (m *Manager) TranslateAsync(ctx context.Context) error {
	text, release, err := m.begin()
	if err != nil {
		return err
	}
	reqCtx := context.WithoutCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer release()
		_ = m.run(reqCtx, text)
	}()
	return nil
}

// Close waits for background translations.
func (m *Manager) Close() {
	m.wg.Wait()
}

func (m *Manager) begin() (string, func(), error) {
	if strings.TrimSpace(m.state.Text()) == "" {
		return "", nil, ErrNothingToTranslate
	}
	release, ok := m.state.TryBeginTranslation()
	if !ok {
		m.count(context.Background(), "busy")
		return "", nil, ErrBusy
	}
	text := m.state.Text()
	if strings.TrimSpace(text) == "" {
		release()
		return "", nil, ErrNothingToTranslate
	}
	return text, release, nil
}

func (m *Manager) run(ctx context.Context, text string) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	ctx, span := otel.Tracer("github.com/loqalabs/loqa-sign/translation").Start(ctx, "translation.translate")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)), attribute.String("language", m.language))

	start := time.Now()
	translated, err := m.translator.Translate(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.count(ctx, "failure")
		m.log.Warn("translation failed", slog.String("error", err.Error()))
		return err
	}
	m.state.SetTranslation(text, translated, m.language)
	m.count(ctx, "success")
	m.log.Info("translation complete", slog.Duration("latency", time.Since(start)), slog.Int("chars", len(text)))
	return nil
}

func (m *Manager) count(ctx context.Context, outcome string) {
	if m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
