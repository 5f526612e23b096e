package bus

import (
	"log/slog"
	"time"

	"github.com/loqalabs/loqa-sign/internal/health"
	"github.com/loqalabs/loqa-sign/internal/protocol"
	"github.com/loqalabs/loqa-sign/internal/session"
)

// Publisher forwards session mutations and connection changes to the bus. A
// Publisher with a nil client drops everything.
type Publisher struct {
	client *Client
	log    *slog.Logger
}

func NewPublisher(client *Client, log *slog.Logger) *Publisher {
	return &Publisher{client: client, log: log.With(slog.String("component", "bus-publisher"))}
}

func (p *Publisher) OnSessionEvent(evt session.Event) {
	if p.client == nil {
		return
	}
	var subject string
	var msg any
	switch evt.Type {
	case session.EventLetterAccepted:
		subject = protocol.SubjectLetterAccepted
		msg = protocol.LetterAccepted{
			SessionID:  evt.SessionID,
			Letter:     evt.Letter,
			Confidence: evt.Confidence,
			Text:       evt.Text,
			Source:     evt.Source,
			Timestamp:  evt.At,
		}
	case session.EventTextCleared:
		subject = protocol.SubjectTextCleared
		msg = protocol.TextCleared{SessionID: evt.SessionID, Timestamp: evt.At}
	case session.EventTranslated:
		subject = protocol.SubjectTranslationCompleted
		msg = protocol.TranslationCompleted{
			SessionID:  evt.SessionID,
			Source:     evt.Text,
			Translated: evt.Translated,
			Language:   evt.Language,
			Timestamp:  evt.At,
		}
	default:
		return
	}
	p.publish(subject, msg)
}

func (p *Publisher) OnConnectionChange(state health.State) {
	if p.client == nil {
		return
	}
	p.publish(protocol.SubjectConnectionChanged, protocol.ConnectionChanged{
		State:     state.String(),
		Label:     state.Label(),
		Timestamp: time.Now().UTC(),
	})
}

func (p *Publisher) publish(subject string, msg any) {
	if err := p.client.PublishJSON(subject, msg); err != nil {
		p.log.Warn("failed to publish", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}
