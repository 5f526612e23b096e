package camera

import (
	"fmt"

	"github.com/loqalabs/loqa-sign/internal/config"
)

// New builds the camera selected by cfg.Mode.
func New(cfg config.CameraConfig) (Camera, error) {
	switch cfg.Mode {
	case "", "mock":
		return NewMockCamera(), nil
	case "exec":
		return NewExecCamera(cfg.Command, cfg.MimeType)
	case "directory":
		return NewDirectoryCamera(cfg.Directory, cfg.MimeType)
	default:
		return nil, fmt.Errorf("unknown camera mode %q", cfg.Mode)
	}
}
