package camera

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type directoryCamera struct {
	dir      string
	fallback string
	mu       sync.Mutex
	next     int
}

// NewDirectoryCamera replays the image files of dir in name order, wrapping
// around at the end. New files are picked up on the next pass.
func NewDirectoryCamera(dir, mimeType string) (Camera, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("camera directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("camera directory %s is not a directory", dir)
	}
	return &directoryCamera{dir: dir, fallback: mimeType}, nil
}

func (c *directoryCamera) CaptureStill(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	files, err := c.images()
	if err != nil {
		return Frame{}, err
	}
	if len(files) == 0 {
		return Frame{}, ErrNotReady
	}
	if c.next >= len(files) {
		c.next = 0
	}
	path := files[c.next]
	c.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame %s: %w", filepath.Base(path), err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = c.fallback
	}
	return Frame{Data: data, MimeType: mimeType}, nil
}

func (c *directoryCamera) images() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("list camera directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, filepath.Join(c.dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
