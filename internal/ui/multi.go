package ui

import (
	"beast/internal/domain"
	"beast/internal/ports"
)

// Multi forwards every event to each presenter in order.
type Multi []ports.Presenter

func (m Multi) Status(state domain.State) {
	for _, p := range m {
		p.Status(state)
	}
}

func (m Multi) Transcript(text string) {
	for _, p := range m {
		p.Transcript(text)
	}
}

func (m Multi) Reply(text string) {
	for _, p := range m {
		p.Reply(text)
	}
}

func (m Multi) ShowAnswer(answer domain.Answer) {
	for _, p := range m {
		p.ShowAnswer(answer)
	}
}

func (m Multi) HideAnswer() {
	for _, p := range m {
		p.HideAnswer()
	}
}

func (m Multi) News(list string) {
	for _, p := range m {
		p.News(list)
	}
}

func (m Multi) Level(level float64) {
	for _, p := range m {
		p.Level(level)
	}
}

func (m Multi) Clear() {
	for _, p := range m {
		p.Clear()
	}
}

// Discard ignores every event.
type Discard struct{}

func (Discard) Status(domain.State)      {}
func (Discard) Transcript(string)        {}
func (Discard) Reply(string)             {}
func (Discard) ShowAnswer(domain.Answer) {}
func (Discard) HideAnswer()              {}
func (Discard) News(string)              {}
func (Discard) Level(float64)            {}
func (Discard) Clear()                   {}
