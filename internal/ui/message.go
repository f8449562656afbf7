package ui

import (
	"beast/internal/domain"
	"beast/internal/ports"
)

// Outbound kinds.
const (
	KindStatus     = "status"
	KindTranscript = "transcript"
	KindReply      = "reply"
	KindAnswer     = "answer"
	KindHideAnswer = "hide_answer"
	KindNews       = "news"
	KindLevel      = "level"
	KindClear      = "clear"
)

// Inbound kinds.
const (
	KindCommand = "command"
	KindListen  = "listen"
	KindStop    = "stop"
	KindHush    = "hush"
)

// Message is the JSON frame exchanged with presentation clients.
type Message struct {
	Kind    string         `json:"kind"`
	Content string         `json:"content,omitempty"`
	Answer  *domain.Answer `json:"answer,omitempty"`
	Level   float64        `json:"level,omitempty"`
}

// Apply replays an outbound message on p. Inbound kinds are ignored.
func (m Message) Apply(p ports.Presenter) {
	switch m.Kind {
	case KindStatus:
		p.Status(domain.State(m.Content))
	case KindTranscript:
		p.Transcript(m.Content)
	case KindReply:
		p.Reply(m.Content)
	case KindAnswer:
		if m.Answer != nil {
			p.ShowAnswer(*m.Answer)
		}
	case KindHideAnswer:
		p.HideAnswer()
	case KindNews:
		p.News(m.Content)
	case KindLevel:
		p.Level(m.Level)
	case KindClear:
		p.Clear()
	}
}
