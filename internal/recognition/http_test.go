package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loqalabs/loqa-sign/internal/camera"
	"github.com/loqalabs/loqa-sign/internal/protocol"
)

func TestHTTPRecognizerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recognize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req protocol.RecognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.HasPrefix(req.Image, "data:image/jpeg;base64,") {
			t.Errorf("expected data url, got %q", req.Image)
		}
		_, _ = w.Write([]byte(`{"success":true,"letter":"A","confidence":0.9,"landmarks_detected":true,"hand_detected":true}`))
	}))
	defer srv.Close()

	rec := NewHTTPRecognizer(srv.URL+"/", time.Second)
	result, err := rec.Recognize(context.Background(), camera.Frame{Data: []byte{1, 2}, MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || !result.HandDetected || result.Letter != "A" || result.Confidence != 0.9 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHTTPRecognizerNullLetter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"letter":null,"confidence":0.0,"landmarks_detected":false,"hand_detected":false,"message":"No hand detected"}`))
	}))
	defer srv.Close()

	result, err := NewHTTPRecognizer(srv.URL, time.Second).Recognize(context.Background(), camera.Frame{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Letter != "" || result.HandDetected {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHTTPRecognizerServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPRecognizer(srv.URL, time.Second).Recognize(context.Background(), camera.Frame{})
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Status != http.StatusInternalServerError || svcErr.Message != "boom" {
		t.Fatalf("unexpected service error %+v", svcErr)
	}
}

func TestHTTPRecognizerTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPRecognizer(url, time.Second).Recognize(context.Background(), camera.Frame{})
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestMockRecognizerScript(t *testing.T) {
	rec := NewMockRecognizer([]string{"A:0.95", "-", "?", "B"})
	var got []Result
	for i := 0; i < 5; i++ {
		result, err := rec.Recognize(context.Background(), camera.Frame{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, result)
	}
	if got[0].Letter != "A" || got[0].Confidence != 0.95 {
		t.Fatalf("unexpected first step %+v", got[0])
	}
	if got[1].HandDetected || got[1].Letter != "" {
		t.Fatalf("expected no hand, got %+v", got[1])
	}
	if !got[2].HandDetected || got[2].Letter != "" {
		t.Fatalf("expected unstable hand, got %+v", got[2])
	}
	if got[3].Letter != "B" || got[3].Confidence != 0.9 {
		t.Fatalf("unexpected default confidence %+v", got[3])
	}
	if got[4].Letter != "A" {
		t.Fatalf("expected script to loop, got %+v", got[4])
	}
}
