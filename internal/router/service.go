// Package router dispatches control commands received over the bus to the
// capture pipeline.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loqalabs/loqa-sign/internal/accumulator"
	"github.com/loqalabs/loqa-sign/internal/bus"
	"github.com/loqalabs/loqa-sign/internal/protocol"
	"github.com/loqalabs/loqa-sign/internal/scheduler"
	"github.com/loqalabs/loqa-sign/internal/session"
	"github.com/loqalabs/loqa-sign/internal/translation"
	"github.com/nats-io/nats.go"
)

var errUnknownCommand = errors.New("unknown command")

type Service struct {
	bus        *bus.Client
	state      *session.Store
	acc        *accumulator.Machine
	sched      *scheduler.Scheduler
	translator *translation.Manager
	logger     *slog.Logger
	sub        *nats.Subscription
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewService(parent context.Context, busClient *bus.Client, state *session.Store, acc *accumulator.Machine, sched *scheduler.Scheduler, translator *translation.Manager, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:        busClient,
		state:      state,
		acc:        acc,
		sched:      sched,
		translator: translator,
		logger:     logger.With(slog.String("component", "router")),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the command subjects. It is a no-op without a bus.
func (s *Service) Start() error {
	if s.bus == nil {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectCommandPrefix+"*", s.handleCommand)
	if err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
}

func (s *Service) Healthy() bool {
	return s.bus == nil || s.sub != nil
}

func (s *Service) handleCommand(msg *nats.Msg) {
	reply, err := s.dispatch(msg.Subject, msg.Data)
	if err != nil {
		s.logger.Warn("command failed", slog.String("subject", msg.Subject), slogError(err))
		reply.Error = err.Error()
	} else {
		reply.OK = true
	}
	reply.Text = s.state.Text()

	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to encode reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to respond", slogError(err))
	}
}

func (s *Service) dispatch(subject string, data []byte) (protocol.CommandReply, error) {
	var reply protocol.CommandReply
	switch subject {
	case protocol.SubjectCommandClear:
		s.acc.Clear()
	case protocol.SubjectCommandTranslate:
		return reply, s.translator.TranslateAsync(s.ctx)
	case protocol.SubjectCommandLetter:
		var cmd protocol.LetterCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return reply, fmt.Errorf("decode letter command: %w", err)
		}
		if strings.TrimSpace(cmd.Letter) == "" {
			return reply, errors.New("letter is required")
		}
		accepted := s.acc.AddLetter(s.ctx, cmd.Letter).Accepted
		reply.Accepted = &accepted
	case protocol.SubjectCommandDetection, protocol.SubjectCommandCamera:
		var cmd protocol.ToggleCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			return reply, fmt.Errorf("decode toggle command: %w", err)
		}
		if cmd.Enabled == nil {
			return reply, errors.New("enabled is required")
		}
		if subject == protocol.SubjectCommandDetection {
			s.sched.SetEnabled(*cmd.Enabled)
		} else {
			s.sched.SetCameraEnabled(*cmd.Enabled)
		}
	default:
		return reply, fmt.Errorf("%w %q", errUnknownCommand, strings.TrimPrefix(subject, protocol.SubjectCommandPrefix))
	}
	return reply, nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
