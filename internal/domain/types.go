package domain

import "errors"

// State is the presentational session state of the assistant.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSpeaking  State = "speaking"
)

var (
	// ErrBusy is returned when listening is requested while the assistant
	// is already listening or speaking.
	ErrBusy = errors.New("assistant is busy")
	// ErrUnsupported marks a missing platform capability.
	ErrUnsupported = errors.New("capability not supported")
)

// Answer is the display payload of a topic lookup.
type Answer struct {
	Text       string `json:"text"`
	ImageURL   string `json:"imageUrl,omitempty"`
	ArticleURL string `json:"articleUrl,omitempty"`
}

// Headline is a single news article title.
type Headline struct {
	Title string `json:"title"`
}

// Status summarizes the runtime state for control surfaces.
type Status struct {
	State     State `json:"state"`
	Reminders int   `json:"reminders"`
}
