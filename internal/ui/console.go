package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"beast/internal/domain"
)

// Console prints presenter events to a terminal, rendering answers and
// headlines as markdown.
type Console struct {
	w       io.Writer
	render  *glamour.TermRenderer
	replies bool
	mu      sync.Mutex
	state   domain.State
}

// NewConsole writes to w. Replies are echoed only when echoReplies is set,
// since a console voice already prints everything it narrates.
func NewConsole(w io.Writer, echoReplies bool, opts ...glamour.TermRendererOption) (*Console, error) {
	if len(opts) == 0 {
		opts = []glamour.TermRendererOption{glamour.WithAutoStyle(), glamour.WithWordWrap(80)}
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("glamour renderer: %w", err)
	}
	return &Console{w: w, render: r, replies: echoReplies, state: domain.StateIdle}, nil
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) markdown(md string) {
	out, err := c.render.Render(md)
	if err != nil {
		out = md + "\n"
	}
	c.printf("%s", out)
}

func (c *Console) Status(state domain.State) {
	c.mu.Lock()
	changed := state != c.state
	c.state = state
	c.mu.Unlock()

	if changed && state == domain.StateListening {
		c.printf("· listening\n")
	}
}

func (c *Console) Transcript(text string) {
	c.printf("%s\n", text)
}

func (c *Console) Reply(text string) {
	if c.replies {
		c.printf("BEAST: %s\n", text)
	}
}

func (c *Console) ShowAnswer(answer domain.Answer) {
	var b strings.Builder
	b.WriteString(answer.Text)
	if answer.ArticleURL != "" {
		fmt.Fprintf(&b, "\n\n[Read more](%s)", answer.ArticleURL)
	}
	c.markdown(b.String())
}

func (c *Console) HideAnswer() {}

func (c *Console) News(list string) {
	c.markdown("## Headlines\n\n" + list)
}

func (c *Console) Level(float64) {}

func (c *Console) Clear() {
	c.printf("\033[H\033[2J")
}
