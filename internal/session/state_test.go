package session

import (
	"sync"
	"testing"
)

func TestAppendUnlessRepeat(t *testing.T) {
	s := New()
	if !s.AppendUnlessRepeat("A", 0.9, "test") {
		t.Fatal("expected first letter accepted")
	}
	if s.AppendUnlessRepeat("A", 0.9, "test") {
		t.Fatal("expected immediate repeat rejected")
	}
	if !s.AppendUnlessRepeat("B", 0.8, "test") {
		t.Fatal("expected different letter accepted")
	}
	if !s.AppendUnlessRepeat("A", 0.95, "test") {
		t.Fatal("expected letter accepted after a different one")
	}
	snap := s.Snapshot()
	if snap.Text != "ABA" {
		t.Fatalf("expected ABA, got %q", snap.Text)
	}
	if snap.LastLetter.Letter != "A" || snap.LastLetter.Confidence != 0.95 {
		t.Fatalf("unexpected last letter %+v", snap.LastLetter)
	}
}

func TestResetClearsEverything(t *testing.T) {
	s := New()
	s.AppendUnlessRepeat("H", 0.9, "test")
	s.SetTranslation("H", "ह", "Marathi")
	s.Reset()

	snap := s.Snapshot()
	if snap.Text != "" || snap.Translated != "" || snap.LastLetter != (LastLetter{}) {
		t.Fatalf("expected empty state, got %+v", snap)
	}
	if !s.AppendUnlessRepeat("H", 0.9, "test") {
		t.Fatal("expected letter accepted after reset cleared last letter")
	}
}

func TestInFlightFlagsAreIndependent(t *testing.T) {
	s := New()
	releaseRec, ok := s.TryBeginRecognition()
	if !ok {
		t.Fatal("expected recognition acquired")
	}
	if _, ok := s.TryBeginRecognition(); ok {
		t.Fatal("expected second recognition acquire to fail")
	}
	releaseTr, ok := s.TryBeginTranslation()
	if !ok {
		t.Fatal("expected translation acquired while recognition in flight")
	}
	releaseRec()
	releaseRec()
	if s.Processing() {
		t.Fatal("expected recognition released")
	}
	if !s.Translating() {
		t.Fatal("expected translation still in flight")
	}
	releaseTr()
	if s.Translating() {
		t.Fatal("expected translation released")
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.TryBeginTranslation(); ok {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestObserversReceiveEvents(t *testing.T) {
	s := New()
	var got []EventType
	s.Observe(func(evt Event) {
		if evt.SessionID != s.ID() {
			t.Errorf("unexpected session id %s", evt.SessionID)
		}
		got = append(got, evt.Type)
	})
	s.AppendUnlessRepeat("A", 0.9, "test")
	s.AppendUnlessRepeat("A", 0.9, "test")
	s.SetTranslation("A", "अ", "Marathi")
	s.Reset()

	want := []EventType{EventLetterAccepted, EventTranslated, EventTextCleared}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSetTranslationStoresReturnedText(t *testing.T) {
	s := New()
	s.SetTranslation("HELLO", " नमस्कार\n", "Marathi")
	if got := s.Translated(); got != " नमस्कार\n" {
		t.Fatalf("expected returned text kept as-is, got %q", got)
	}
	// decomposed "é" is stored composed
	s.SetTranslation("E", "e\u0301", "French")
	if got := s.Translated(); got != "\u00e9" {
		t.Fatalf("expected NFC form, got %q", got)
	}
}
