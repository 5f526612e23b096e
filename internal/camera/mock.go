package camera

import (
	"context"
	"sync/atomic"
)

// minimal JPEG: SOI + EOI markers
var placeholderJPEG = []byte{0xFF, 0xD8, 0xFF, 0xD9}

// MockCamera returns a fixed placeholder frame while ready.
type MockCamera struct {
	ready    atomic.Bool
	captures atomic.Int64
}

func NewMockCamera() *MockCamera {
	c := &MockCamera{}
	c.ready.Store(true)
	return c
}

// SetReady toggles whether CaptureStill yields a frame.
func (c *MockCamera) SetReady(ready bool) { c.ready.Store(ready) }

// Captures reports how many frames were requested.
func (c *MockCamera) Captures() int64 { return c.captures.Load() }

func (c *MockCamera) CaptureStill(ctx context.Context) (Frame, error) {
	c.captures.Add(1)
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if !c.ready.Load() {
		return Frame{}, ErrNotReady
	}
	return Frame{Data: append([]byte(nil), placeholderJPEG...), MimeType: "image/jpeg"}, nil
}
