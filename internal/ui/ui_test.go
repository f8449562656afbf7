package ui

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beast/internal/domain"
)

type recorder struct {
	Discard
	mu      sync.Mutex
	replies []string
	clears  int
	states  []domain.State
}

func (r *recorder) Reply(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, text)
}

func (r *recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recorder) Status(s domain.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsPresenterEvents(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Status(domain.StateListening)
	hub.ShowAnswer(domain.Answer{Text: "Go is a language.", ArticleURL: "https://example.org/go"})

	var m Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, Message{Kind: KindStatus, Content: "listening"}, m)

	m = Message{}
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, KindAnswer, m.Kind)
	require.NotNil(t, m.Answer)
	assert.Equal(t, "https://example.org/go", m.Answer.ArticleURL)
}

func TestHubForwardsInboundMessages(t *testing.T) {
	got := make(chan Message, 1)
	hub := NewHub(func(m Message) { got <- m })
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(Message{Kind: KindCommand, Content: "tell me a joke"}))

	select {
	case m := <-got:
		assert.Equal(t, KindCommand, m.Kind)
		assert.Equal(t, "tell me a joke", m.Content)
	case <-time.After(time.Second):
		t.Fatal("inbound message not forwarded")
	}
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTypewriterRevealsPrefixes(t *testing.T) {
	rec := &recorder{}
	tw := NewTypewriter(rec, time.Millisecond)

	tw.Reply("Hi!")
	tw.Wait()

	assert.Equal(t, []string{"H", "Hi", "Hi!"}, rec.snapshot())
}

func TestTypewriterNewReplyAbortsReveal(t *testing.T) {
	rec := &recorder{}
	tw := NewTypewriter(rec, 20*time.Millisecond)

	tw.Reply("a long sentence that takes a while")
	tw.Reply("ok")
	tw.Wait()

	replies := rec.snapshot()
	require.NotEmpty(t, replies)
	assert.Equal(t, "ok", replies[len(replies)-1])
	assert.NotContains(t, replies, "a long sentence that takes a while")
}

func TestTypewriterWithoutDelay(t *testing.T) {
	rec := &recorder{}
	tw := NewTypewriter(rec, 0)

	tw.Reply("instant")
	tw.Clear()

	assert.Equal(t, []string{"instant"}, rec.snapshot())
	assert.Equal(t, 1, rec.clears)
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	m.Reply("hello")
	m.Status(domain.StateSpeaking)

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, []string{"hello"}, r.snapshot())
		assert.Equal(t, []domain.State{domain.StateSpeaking}, r.states)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewConsole(&buf, false, glamour.WithStandardStyle("notty"))
	require.NoError(t, err)

	c.Status(domain.StateListening)
	c.Status(domain.StateListening)
	c.Transcript("You said: hello")
	c.Reply("not echoed")
	c.News("1. A\n2. B")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "listening"))
	assert.Contains(t, out, "You said: hello")
	assert.NotContains(t, out, "not echoed")
	assert.Contains(t, out, "Headlines")
	assert.Contains(t, out, "A")
}

func TestClientReceivesAndSends(t *testing.T) {
	inbound := make(chan Message, 1)
	hub := NewHub(func(m Message) { inbound <- m })
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), 10*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	rec := &recorder{}
	done := make(chan error, 1)
	go func() {
		done <- c.Run(ctx, func(m Message) { m.Apply(rec) })
	}()

	hub.Status(domain.StateSpeaking)
	hub.Reply("Hello there")
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Hello there"}, rec.snapshot())

	require.NoError(t, c.Send(Message{Kind: KindHush}))
	select {
	case m := <-inbound:
		assert.Equal(t, KindHush, m.Kind)
	case <-time.After(time.Second):
		t.Fatal("client frame not forwarded")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []domain.State{domain.StateSpeaking}, rec.states)
}

func TestMessageApplyIgnoresInbound(t *testing.T) {
	rec := &recorder{}
	Message{Kind: KindCommand, Content: "hello"}.Apply(rec)
	Message{Kind: KindAnswer}.Apply(rec)
	Message{Kind: KindClear}.Apply(rec)

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 1, rec.clears)
}
