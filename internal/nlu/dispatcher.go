package nlu

import (
	"beast/internal/reminder"
)

// IntentFallback names the terminal rule that fires when nothing matched.
const IntentFallback = "fallback"

// Actions are the side effects a rule handler may trigger. Handlers run
// synchronously; implementations start slow work in the background.
type Actions interface {
	Say(text string)
	Open(url string)
	LookupTopic(topic string)
	ReadHeadlines()
	Remind(task string, amount int, unit reminder.Unit)
	ClearScreen()
}

// Handler performs the action of a matched rule.
type Handler func(a Actions, m Match)

// Rule pairs a predicate with its handler.
type Rule struct {
	Intent string
	Match  Predicate
	Handle Handler
}

// Dispatcher evaluates rules top to bottom; the first match wins.
type Dispatcher struct {
	rules    []Rule
	fallback Handler
}

// NewDispatcher evaluates rules in order; fallback runs when none match.
func NewDispatcher(rules []Rule, fallback Handler) *Dispatcher {
	return &Dispatcher{
		rules:    append([]Rule(nil), rules...),
		fallback: fallback,
	}
}

// Dispatch runs the first matching rule and returns its intent.
func (d *Dispatcher) Dispatch(u Utterance, a Actions) string {
	if u != "" {
		for _, r := range d.rules {
			m, ok := r.Match(u)
			if !ok {
				continue
			}
			r.Handle(a, m)
			return r.Intent
		}
	}

	if d.fallback != nil {
		d.fallback(a, Match{Utterance: u})
	}
	return IntentFallback
}

// Intents lists rule intents in evaluation order.
func (d *Dispatcher) Intents() []string {
	out := make([]string, 0, len(d.rules)+1)
	for _, r := range d.rules {
		out = append(out, r.Intent)
	}
	return append(out, IntentFallback)
}
