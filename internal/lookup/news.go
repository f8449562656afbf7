package lookup

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/url"
	"strings"

	"beast/internal/domain"
)

// ErrNotConfigured is returned when no headlines API key is set.
var ErrNotConfigured = errors.New("headlines API key not configured")

const (
	replyNewsError = "Sorry, I couldn't fetch the news right now."
	replyNoNews    = "I couldn't find any headlines right now."

	DefaultHeadlineLimit = 5
)

type headlinesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title string `json:"title"`
	} `json:"articles"`
}

// HeadlinesConfig describes the headlines endpoint.
type HeadlinesConfig struct {
	BaseURL string
	APIKey  string
	Country string
	Limit   int
}

// Headlines narrates the top news titles one after another.
type Headlines struct {
	client  *Client
	cfg     HeadlinesConfig
	speak   Speaker
	display Display
}

func NewHeadlines(client *Client, cfg HeadlinesConfig, speak Speaker, display Display) *Headlines {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultHeadlineLimit
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	return &Headlines{client: client, cfg: cfg, speak: speak, display: display}
}

// Fetch returns at most Limit headlines.
func (h *Headlines) Fetch(ctx context.Context) ([]domain.Headline, error) {
	if h.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("country", h.cfg.Country)
	q.Set("apiKey", h.cfg.APIKey)

	var resp headlinesResponse
	if err := h.client.GetJSON(ctx, h.cfg.BaseURL+"/top-headlines?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("headlines status %q: %s", resp.Status, resp.Message)
	}

	out := make([]domain.Headline, 0, h.cfg.Limit)
	for _, a := range resp.Articles {
		if len(out) == h.cfg.Limit {
			break
		}
		out = append(out, domain.Headline{Title: a.Title})
	}
	return out, nil
}

// Run narrates each headline only after the previous narration finished
// and then publishes the numbered list. A failed or cancelled narration
// ends the sequence; without a voice the list is still published.
func (h *Headlines) Run(ctx context.Context) error {
	list, err := h.Fetch(ctx)
	if err != nil {
		log.Error("Headlines lookup failed", "err", err)
		h.speak.Speak(replyNewsError)
		return err
	}

	if len(list) == 0 {
		h.speak.Speak(replyNoNews)
		return nil
	}

	for i, hl := range list {
		done := h.speak.Speak(fmt.Sprintf("Headline %d: %s", i+1, hl.Title))
		select {
		case err := <-done:
			if errors.Is(err, domain.ErrUnsupported) {
				continue
			}
			if err != nil {
				return fmt.Errorf("narrate headline %d: %w", i+1, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.display.News(FormatHeadlines(list))
	return nil
}

// FormatHeadlines renders "1. title" lines.
func FormatHeadlines(list []domain.Headline) string {
	var b strings.Builder
	for i, hl := range list {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, hl.Title)
	}
	return b.String()
}
