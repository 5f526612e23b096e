package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loqalabs/loqa-sign/internal/protocol"
)

type backendTranslator struct {
	endpoint string
	client   *http.Client
}

// NewBackendTranslator posts text to the recognition backend's /translate
// endpoint, which answers in Marathi.
func NewBackendTranslator(endpoint string, timeout time.Duration) Translator {
	return &backendTranslator{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *backendTranslator) Translate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(protocol.TranslateRequest{Text: text})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &TransportError{Err: err}
	}
	var decoded protocol.TranslateResponse
	if resp.StatusCode >= 300 {
		_ = json.Unmarshal(payload, &decoded)
		return "", &ServiceError{Status: resp.StatusCode, Message: decoded.Error}
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if !decoded.Success {
		return "", &ServiceError{Status: resp.StatusCode, Message: "response not marked successful"}
	}
	return decoded.Marathi, nil
}
