package protocol

import "time"

// RecognizeRequest is posted to the recognition service with a single frame.
type RecognizeRequest struct {
	Image string `json:"image"`
}

// RecognizeResponse is the recognition service reply. Letter is null when no
// stable gesture was classified.
type RecognizeResponse struct {
	Success           bool    `json:"success"`
	Letter            *string `json:"letter"`
	Confidence        float64 `json:"confidence"`
	HandDetected      bool    `json:"hand_detected"`
	LandmarksDetected *bool   `json:"landmarks_detected,omitempty"`
	Message           string  `json:"message,omitempty"`
	Error             string  `json:"error,omitempty"`
}

// TranslateRequest is posted to the backend translation endpoint.
type TranslateRequest struct {
	Text string `json:"text"`
}

// TranslateResponse is the backend translation reply.
type TranslateResponse struct {
	Success bool   `json:"success"`
	English string `json:"english"`
	Marathi string `json:"marathi"`
	Error   string `json:"error,omitempty"`
}

// LetterAccepted is broadcast when a symbol is appended to the session text.
type LetterAccepted struct {
	SessionID  string    `json:"session_id"`
	Letter     string    `json:"letter"`
	Confidence float64   `json:"confidence"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

// TextCleared is broadcast when the session text is reset.
type TextCleared struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TranslationCompleted is broadcast after a successful translation.
type TranslationCompleted struct {
	SessionID  string    `json:"session_id"`
	Source     string    `json:"source"`
	Translated string    `json:"translated"`
	Language   string    `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
}

// ConnectionChanged is broadcast when the recognition backend health changes.
type ConnectionChanged struct {
	State     string    `json:"state"`
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectLetterAccepted       = "sign.letter.accepted"
	SubjectTextCleared          = "sign.text.cleared"
	SubjectTranslationCompleted = "sign.translation.completed"
	SubjectConnectionChanged    = "sign.connection.changed"
)

// Command subjects accept request/reply control messages over the bus.
const (
	SubjectCommandPrefix    = "sign.cmd."
	SubjectCommandClear     = "sign.cmd.clear"
	SubjectCommandTranslate = "sign.cmd.translate"
	SubjectCommandLetter    = "sign.cmd.letter"
	SubjectCommandDetection = "sign.cmd.detection"
	SubjectCommandCamera    = "sign.cmd.camera"
)

// LetterCommand appends a symbol manually.
type LetterCommand struct {
	Letter string `json:"letter"`
}

// ToggleCommand switches detection or the camera.
type ToggleCommand struct {
	Enabled *bool `json:"enabled"`
}

// CommandReply answers every command request.
type CommandReply struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
	Text     string `json:"text"`
}
