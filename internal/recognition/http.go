package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loqalabs/loqa-sign/internal/camera"
	"github.com/loqalabs/loqa-sign/internal/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type httpRecognizer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRecognizer posts frames to endpoint + "/recognize".
func NewHTTPRecognizer(endpoint string, timeout time.Duration) Recognizer {
	return &httpRecognizer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *httpRecognizer) Recognize(ctx context.Context, frame camera.Frame) (Result, error) {
	ctx, span := otel.Tracer("github.com/loqalabs/loqa-sign/recognition").Start(ctx, "recognition.recognize")
	defer span.End()
	span.SetAttributes(attribute.Int("frame.bytes", len(frame.Data)))

	result, err := r.recognize(ctx, frame)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(
		attribute.Bool("hand_detected", result.HandDetected),
		attribute.String("letter", result.Letter),
		attribute.Float64("confidence", result.Confidence),
	)
	return result, nil
}

func (r *httpRecognizer) recognize(ctx context.Context, frame camera.Frame) (Result, error) {
	body, err := json.Marshal(protocol.RecognizeRequest{Image: frame.DataURL()})
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/recognize", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, &TransportError{Err: err}
	}
	if resp.StatusCode >= 300 {
		var decoded protocol.RecognizeResponse
		_ = json.Unmarshal(payload, &decoded)
		return Result{}, &ServiceError{Status: resp.StatusCode, Message: decoded.Error}
	}

	var decoded protocol.RecognizeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode recognition response: %w", err)
	}
	return fromWire(decoded), nil
}

func fromWire(resp protocol.RecognizeResponse) Result {
	result := Result{
		Success:      resp.Success,
		HandDetected: resp.HandDetected,
		Confidence:   resp.Confidence,
	}
	if resp.LandmarksDetected != nil {
		result.HandDetected = *resp.LandmarksDetected
	}
	if resp.Letter != nil {
		result.Letter = strings.TrimSpace(*resp.Letter)
	}
	return result
}
