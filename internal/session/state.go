// Package session holds the state shared by the capture pipeline and exposed
// to the presentation layer.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// LastLetter is the most recently accepted symbol.
type LastLetter struct {
	Letter     string  `json:"letter"`
	Confidence float64 `json:"confidence"`
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	ID          string     `json:"session_id"`
	Text        string     `json:"text"`
	Translated  string     `json:"translated"`
	LastLetter  LastLetter `json:"last_letter"`
	HandVisible bool       `json:"hand_visible"`
	Processing  bool       `json:"processing"`
	Translating bool       `json:"translating"`
}

type EventType string

const (
	EventLetterAccepted EventType = "letter.accepted"
	EventTextCleared    EventType = "text.cleared"
	EventTranslated     EventType = "translation.completed"
)

// Event describes a mutation of the store. Observers receive it after the
// mutation has been applied.
type Event struct {
	Type       EventType
	SessionID  string
	Letter     string
	Confidence float64
	Source     string
	Text       string
	Translated string
	Language   string
	At         time.Time
}

// Store is the single owner of the accumulated text, the last accepted letter,
// the translated text and the two in-flight flags.
type Store struct {
	mu          sync.RWMutex
	id          string
	text        string
	translated  string
	last        LastLetter
	handVisible bool

	processing  atomic.Bool
	translating atomic.Bool

	obsMu     sync.RWMutex
	observers []func(Event)
	clock     func() time.Time
}

func New() *Store {
	return &Store{id: uuid.NewString(), clock: time.Now}
}

func (s *Store) ID() string { return s.id }

// Observe registers fn to be called for every mutation event.
func (s *Store) Observe(fn func(Event)) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:          s.id,
		Text:        s.text,
		Translated:  s.translated,
		LastLetter:  s.last,
		HandVisible: s.handVisible,
		Processing:  s.processing.Load(),
		Translating: s.translating.Load(),
	}
}

func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

func (s *Store) Translated() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.translated
}

func (s *Store) LastLetter() LastLetter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Store) HandVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handVisible
}

func (s *Store) SetHandVisible(visible bool) {
	s.mu.Lock()
	s.handVisible = visible
	s.mu.Unlock()
}

// AppendUnlessRepeat appends letter to the text unless it equals the last
// accepted letter. displayConfidence is what LastLetter reports afterwards.
func (s *Store) AppendUnlessRepeat(letter string, displayConfidence float64, source string) bool {
	letter = norm.NFC.String(letter)
	if letter == "" {
		return false
	}

	s.mu.Lock()
	if letter == s.last.Letter {
		s.mu.Unlock()
		return false
	}
	s.text += letter
	s.last = LastLetter{Letter: letter, Confidence: displayConfidence}
	evt := Event{
		Type:       EventLetterAccepted,
		SessionID:  s.id,
		Letter:     letter,
		Confidence: displayConfidence,
		Source:     source,
		Text:       s.text,
		At:         s.clock().UTC(),
	}
	s.mu.Unlock()

	s.emit(evt)
	return true
}

// Reset clears the text, the last letter and the translation.
func (s *Store) Reset() {
	s.mu.Lock()
	s.text = ""
	s.translated = ""
	s.last = LastLetter{}
	evt := Event{Type: EventTextCleared, SessionID: s.id, At: s.clock().UTC()}
	s.mu.Unlock()

	s.emit(evt)
}

// SetTranslation stores the translation of source as returned, NFC-normalized.
// Later appends to the text leave it untouched.
func (s *Store) SetTranslation(source, translated, language string) {
	translated = norm.NFC.String(translated)

	s.mu.Lock()
	s.translated = translated
	evt := Event{
		Type:       EventTranslated,
		SessionID:  s.id,
		Text:       source,
		Translated: translated,
		Language:   language,
		At:         s.clock().UTC(),
	}
	s.mu.Unlock()

	s.emit(evt)
}

// TryBeginRecognition marks a recognition request in flight. The returned
// release func must be called on every exit path; it is safe to call twice.
func (s *Store) TryBeginRecognition() (func(), bool) {
	return acquire(&s.processing)
}

// TryBeginTranslation marks a translation request in flight.
func (s *Store) TryBeginTranslation() (func(), bool) {
	return acquire(&s.translating)
}

func (s *Store) Processing() bool  { return s.processing.Load() }
func (s *Store) Translating() bool { return s.translating.Load() }

func acquire(flag *atomic.Bool) (func(), bool) {
	if !flag.CompareAndSwap(false, true) {
		return func() {}, false
	}
	var once sync.Once
	return func() { once.Do(func() { flag.Store(false) }) }, true
}

func (s *Store) emit(evt Event) {
	s.obsMu.RLock()
	observers := append([]func(Event){}, s.observers...)
	s.obsMu.RUnlock()
	for _, fn := range observers {
		fn(evt)
	}
}
