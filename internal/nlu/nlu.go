package nlu

import (
	"regexp"
	"strconv"
	"strings"

	"beast/internal/reminder"
)

// Utterance is normalized recognized speech.
type Utterance string

// Normalize lowercases a raw transcript and trims surrounding space and
// the sentence punctuation recognizers append ("What is Go?").
func Normalize(raw string) Utterance {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimRight(s, ".?!,;: \t\n")
	return Utterance(s)
}

// ReminderRequest is the parsed form of "remind me to <task> in <n> <unit>".
type ReminderRequest struct {
	Task   string
	Amount int
	Unit   reminder.Unit
}

// Match carries what a predicate extracted from the utterance.
type Match struct {
	Utterance Utterance
	Arg       string
	Reminder  ReminderRequest
}

// Predicate reports whether a rule applies to an utterance.
type Predicate func(u Utterance) (Match, bool)

// Contains matches when any phrase occurs anywhere in the utterance.
func Contains(phrases ...string) Predicate {
	return func(u Utterance) (Match, bool) {
		for _, p := range phrases {
			if strings.Contains(string(u), p) {
				return Match{Utterance: u}, true
			}
		}
		return Match{}, false
	}
}

// Prefix matches when the utterance starts with one of the prefixes as a
// whole word. The rest of the utterance, trimmed, becomes Match.Arg and
// may be empty.
func Prefix(prefixes ...string) Predicate {
	return func(u Utterance) (Match, bool) {
		s := string(u)
		for _, p := range prefixes {
			if !strings.HasPrefix(s, p) {
				continue
			}
			rest := s[len(p):]
			if rest != "" && rest[0] != ' ' {
				continue
			}
			return Match{Utterance: u, Arg: strings.TrimSpace(rest)}, true
		}
		return Match{}, false
	}
}

var reminderRe = regexp.MustCompile(`^remind me to (.+) in (-?\d+) ([a-z]+)$`)

// RemindGrammar matches "remind me to <task> in <integer> <unit>". An
// unknown unit is no match at all. A non-positive or unparsable amount
// still matches, with Amount <= 0, so the handler can ask again.
func RemindGrammar() Predicate {
	return func(u Utterance) (Match, bool) {
		m := reminderRe.FindStringSubmatch(string(u))
		if m == nil {
			return Match{}, false
		}

		unit, ok := reminder.ParseUnit(m[3])
		if !ok {
			return Match{}, false
		}

		amount, err := strconv.Atoi(m[2])
		if err != nil {
			amount = 0
		}

		return Match{
			Utterance: u,
			Reminder: ReminderRequest{
				Task:   strings.TrimSpace(m[1]),
				Amount: amount,
				Unit:   unit,
			},
		}, true
	}
}
