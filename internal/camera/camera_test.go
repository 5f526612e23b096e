package camera

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loqalabs/loqa-sign/internal/config"
)

func TestFrameDataURL(t *testing.T) {
	f := Frame{Data: []byte("hi"), MimeType: "image/png"}
	if got := f.DataURL(); got != "data:image/png;base64,aGk=" {
		t.Fatalf("unexpected data url %q", got)
	}
	if got := (Frame{Data: []byte("hi")}).DataURL(); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg default, got %q", got)
	}
}

func TestMockCameraNotReady(t *testing.T) {
	c := NewMockCamera()
	if _, err := c.CaptureStill(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.SetReady(false)
	if _, err := c.CaptureStill(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if c.Captures() != 2 {
		t.Fatalf("expected 2 captures, got %d", c.Captures())
	}
}

func TestDirectoryCameraCycles(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{"b.jpg": "second", "a.jpg": "first", "notes.txt": "skip"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	cam, err := NewDirectoryCamera(dir, "image/jpeg")
	if err != nil {
		t.Fatalf("new camera: %v", err)
	}
	var got []string
	for i := 0; i < 3; i++ {
		frame, err := cam.CaptureStill(context.Background())
		if err != nil {
			t.Fatalf("capture: %v", err)
		}
		got = append(got, string(frame.Data))
	}
	if strings.Join(got, ",") != "first,second,first" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestDirectoryCameraEmpty(t *testing.T) {
	cam, err := NewDirectoryCamera(t.TempDir(), "image/jpeg")
	if err != nil {
		t.Fatalf("new camera: %v", err)
	}
	if _, err := cam.CaptureStill(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestExecCamera(t *testing.T) {
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("echo not available")
	}
	cam, err := NewExecCamera("/bin/echo -n frame", "image/jpeg")
	if err != nil {
		t.Fatalf("new camera: %v", err)
	}
	frame, err := cam.CaptureStill(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !bytes.Equal(frame.Data, []byte("frame")) {
		t.Fatalf("unexpected frame %q", frame.Data)
	}
}

func TestExecCameraEmptyCommand(t *testing.T) {
	if _, err := NewExecCamera("  ", "image/jpeg"); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestNewFromConfig(t *testing.T) {
	cam, err := New(config.CameraConfig{Mode: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cam.(*MockCamera); !ok {
		t.Fatalf("expected mock camera, got %T", cam)
	}
	if _, err := New(config.CameraConfig{Mode: "webgl"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
