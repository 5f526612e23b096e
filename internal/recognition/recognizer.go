package recognition

import (
	"context"
	"fmt"

	"github.com/loqalabs/loqa-sign/internal/camera"
)

// Result is one classification of a single frame.
type Result struct {
	Success      bool
	HandDetected bool
	Letter       string
	Confidence   float64
}

// Recognizer abstracts gesture classification backends.
type Recognizer interface {
	Recognize(ctx context.Context, frame camera.Frame) (Result, error)
}

// TransportError reports that the service could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("recognition transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports that the service answered but signalled failure.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("recognition service returned status %d", e.Status)
	}
	return fmt.Sprintf("recognition service returned status %d: %s", e.Status, e.Message)
}
