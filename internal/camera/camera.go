package camera

import (
	"context"
	"encoding/base64"
	"errors"
)

// ErrNotReady reports that no still image is available yet.
var ErrNotReady = errors.New("camera not ready")

// Frame is a single encoded still image.
type Frame struct {
	Data     []byte
	MimeType string
}

// DataURL renders the frame the way browsers export canvas screenshots.
func (f Frame) DataURL() string {
	mime := f.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

// Camera hands out still images on demand.
type Camera interface {
	CaptureStill(ctx context.Context) (Frame, error)
}
