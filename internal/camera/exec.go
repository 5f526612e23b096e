package camera

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/mattn/go-shellwords"
)

type execCamera struct {
	cmd      []string
	mimeType string
	mu       sync.Mutex
}

// NewExecCamera runs command for every capture and treats its stdout as the
// encoded image, e.g. `ffmpeg -f v4l2 -i /dev/video0 -frames:v 1 -f mjpeg -`.
func NewExecCamera(command, mimeType string) (Camera, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse camera command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("camera command is empty")
	}
	return &execCamera{cmd: args, mimeType: mimeType}, nil
}

func (c *execCamera) CaptureStill(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	command := exec.CommandContext(ctx, c.cmd[0], c.cmd[1:]...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Frame{}, fmt.Errorf("camera command failed: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return Frame{}, ErrNotReady
	}
	return Frame{Data: stdout.Bytes(), MimeType: c.mimeType}, nil
}
