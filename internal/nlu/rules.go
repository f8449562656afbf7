package nlu

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"beast/internal/catalog"
)

const (
	googleSearchURL  = "https://www.google.com/search?"
	youtubeSearchURL = "https://www.youtube.com/results?"

	replyHelp = "I can tell you the time, date, jokes, facts, open websites, search Google, " +
		"play music on YouTube, read the news, set reminders, and answer questions using Wikipedia. Just ask me!"
	replyVolume   = "I can't control system volume, but you can adjust it in your device settings."
	replyFallback = "I didn't quite understand that. Try asking me about the time, weather, or say 'tell me a joke'!"
)

// Env supplies the non-deterministic inputs of the rule table.
type Env struct {
	Catalog catalog.Catalog
	Now     func() time.Time
	// Pick returns a number in [0, n).
	Pick func(n int) int
}

func (e Env) withDefaults() Env {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Pick == nil {
		e.Pick = rand.IntN
	}
	return e
}

// New builds the assistant's dispatcher.
func New(env Env) *Dispatcher {
	return NewDispatcher(DefaultRules(env), func(a Actions, _ Match) {
		a.Say(replyFallback)
	})
}

// DefaultRules returns the rule table in evaluation order. Commands that
// carry an argument come first so their text can't be claimed by a
// conversational keyword.
func DefaultRules(env Env) []Rule {
	env = env.withDefaults()

	rules := []Rule{
		{Intent: "remind", Match: RemindGrammar(), Handle: remind},
		{Intent: "search", Match: Prefix("search for"), Handle: search("Searching Google for %s", "What do you want me to search?")},
		{Intent: "search_about", Match: Prefix("search about"), Handle: search("Searching Google for %s.", "Please tell me what to search about.")},
		{Intent: "play", Match: Prefix("play"), Handle: play},
		// "something" contains "hi", so this has to precede the greeting.
		{Intent: "interesting", Match: Contains("something interesting"), Handle: say("Did you know that octopuses have three hearts?")},
		{Intent: "greeting", Match: Contains("hello", "hi"), Handle: say("Hey there! I'm BEAST, your advanced voice assistant. How can I help you today?")},
		{Intent: "how_are_you", Match: Contains("how are you"), Handle: say("I'm feeling sharp and ready to assist you!")},
		{Intent: "whats_up", Match: Contains("what's up", "what are you doing"), Handle: say("Just chilling in the code. Ready to help!")},
		{Intent: "news", Match: Contains("news", "headlines"), Handle: func(a Actions, _ Match) { a.ReadHeadlines() }},
		{Intent: "time", Match: Contains("time"), Handle: func(a Actions, _ Match) {
			a.Say("It's " + env.Now().Format("3:04:05 PM"))
		}},
		{Intent: "date", Match: Contains("date", "day"), Handle: func(a Actions, _ Match) {
			a.Say("Today is " + env.Now().Format("Mon Jan 02 2006"))
		}},
	}

	for _, site := range env.Catalog.Sites {
		rules = append(rules, Rule{
			Intent: "open_" + strings.ToLower(strings.ReplaceAll(site.Name, " ", "_")),
			Match:  Contains(site.Phrases...),
			Handle: open(site.Reply, site.URL),
		})
	}

	rules = append(rules,
		Rule{Intent: "joke", Match: Contains("joke"), Handle: pick(env, env.Catalog.Jokes)},
		Rule{Intent: "weather", Match: Contains("weather"), Handle: open("Opening weather forecast.", googleSearchURL+query("q", "weather"))},
		Rule{Intent: "fact", Match: Contains("fact"), Handle: pick(env, env.Catalog.Facts)},
		Rule{Intent: "name", Match: Contains("your name"), Handle: say("I'm BEAST - Brilliant Executive Assistant with Speech Technology.")},
		Rule{Intent: "intelligent", Match: Contains("are you intelligent"), Handle: say("I've been trained by the best - Google and JavaScript!")},
		Rule{Intent: "real", Match: Contains("are you real"), Handle: say("As real as your Wi-Fi connection.")},
		Rule{Intent: "life", Match: Contains("what is life"), Handle: say("That's deep. I'd say... a series of voice commands.")},
		Rule{Intent: "meaning_of_life", Match: Contains("meaning of life"), Handle: say("42. At least according to Hitchhiker's Guide to the Galaxy!")},
		Rule{Intent: "like_me", Match: Contains("do you like me"), Handle: say("Of course! You're my favorite human.")},
		Rule{Intent: "topic", Match: Prefix("who is", "what is"), Handle: topic},
		Rule{Intent: "see_you", Match: Contains("see you later"), Handle: say("Later, legend!")},
		Rule{Intent: "goodbye", Match: Contains("goodbye", "bye"), Handle: say("Catch you later! Stay awesome.")},
		Rule{Intent: "sign_off", Match: Contains("stop listening", "exit"), Handle: say("Okay, signing off. Call me when you need me!")},
		Rule{Intent: "clear", Match: Contains("clear"), Handle: func(a Actions, _ Match) {
			a.ClearScreen()
			a.Say("Screen cleared.")
		}},
		Rule{Intent: "help", Match: Contains("help", "what can you do"), Handle: say(replyHelp)},
		Rule{Intent: "volume", Match: Contains("volume up", "volume down"), Handle: say(replyVolume)},
	)

	return rules
}

func say(text string) Handler {
	return func(a Actions, _ Match) {
		a.Say(text)
	}
}

func open(reply, target string) Handler {
	return func(a Actions, _ Match) {
		a.Say(reply)
		a.Open(target)
	}
}

func pick(env Env, lines []string) Handler {
	return func(a Actions, _ Match) {
		if len(lines) == 0 {
			a.Say(replyFallback)
			return
		}
		a.Say(lines[env.Pick(len(lines))])
	}
}

func search(confirm, clarify string) Handler {
	return func(a Actions, m Match) {
		if m.Arg == "" {
			a.Say(clarify)
			return
		}
		a.Say(fmt.Sprintf(confirm, m.Arg))
		a.Open(googleSearchURL + query("q", m.Arg))
	}
}

func play(a Actions, m Match) {
	if m.Arg == "" {
		a.Say("Please tell me which song to search for.")
		return
	}
	a.Say("Searching YouTube for " + m.Arg + ".")
	a.Open(youtubeSearchURL + query("search_query", m.Arg+" song"))
}

func topic(a Actions, m Match) {
	if m.Arg == "" {
		a.Say("Please say who or what you want me to search.")
		return
	}
	a.Say("Let me search for information about " + m.Arg + ".")
	a.LookupTopic(m.Arg)
}

func remind(a Actions, m Match) {
	r := m.Reminder
	if r.Amount <= 0 || r.Task == "" {
		a.Say("Please tell me a valid time for the reminder, like remind me to stretch in 5 minutes.")
		return
	}
	a.Remind(r.Task, r.Amount, r.Unit)
}

func query(key, value string) string {
	return url.Values{key: {value}}.Encode()
}
