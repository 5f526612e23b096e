// Package translation submits accumulated text to a translation backend.
package translation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a translation request is in flight.
	ErrBusy = errors.New("translation in flight")
	// ErrNothingToTranslate is returned when the text is empty or whitespace.
	ErrNothingToTranslate = errors.New("nothing to translate")
)

// Translator abstracts translation backends.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TransportError reports that the backend could not be reached.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("translation transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError reports that the backend answered without a usable translation.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("translation service returned status %d", e.Status)
	}
	return fmt.Sprintf("translation service returned status %d: %s", e.Status, e.Message)
}

func prompt(language, text string) string {
	return fmt.Sprintf("Translate the following English text to %s. Only provide the %s translation, no explanations: %s", language, language, text)
}
