package lookup

import (
	"context"
	"fmt"
	log "log/slog"
	"net/url"
	"strings"

	"beast/internal/domain"
)

const (
	replyNoInfo    = "Sorry, I couldn't find any information about that."
	replyInfoError = "There was an error getting the information."
)

type summaryResponse struct {
	Extract   string `json:"extract"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs *struct {
		Desktop *struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Topic narrates reference summaries for "who is" / "what is" questions.
type Topic struct {
	client  *Client
	baseURL string
	speak   Speaker
	display Display
}

// NewTopic uses baseURL like "https://en.wikipedia.org/api/rest_v1".
func NewTopic(client *Client, baseURL string, speak Speaker, display Display) *Topic {
	return &Topic{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		speak:   speak,
		display: display,
	}
}

// Summary fetches the summary of topic. An empty Text means nothing was
// found.
func (t *Topic) Summary(ctx context.Context, topic string) (domain.Answer, error) {
	var resp summaryResponse
	target := fmt.Sprintf("%s/page/summary/%s", t.baseURL, url.PathEscape(topic))
	if err := t.client.GetJSON(ctx, target, &resp); err != nil {
		return domain.Answer{}, err
	}

	answer := domain.Answer{Text: strings.TrimSpace(resp.Extract)}
	if resp.Thumbnail != nil {
		answer.ImageURL = resp.Thumbnail.Source
	}
	if resp.ContentURLs != nil && resp.ContentURLs.Desktop != nil {
		answer.ArticleURL = resp.ContentURLs.Desktop.Page
	}
	return answer, nil
}

// Run looks topic up, shows the full extract and narrates its first
// sentence. Failures are narrated as a single apology and returned.
func (t *Topic) Run(ctx context.Context, topic string) error {
	answer, err := t.Summary(ctx, topic)
	if err != nil {
		log.Error("Topic lookup failed", "topic", topic, "err", err)
		t.speak.Speak(replyInfoError)
		return err
	}

	if answer.Text == "" {
		t.speak.Speak(replyNoInfo)
		return nil
	}

	t.display.ShowAnswer(answer)
	t.speak.Speak(FirstSentence(answer.Text))
	return nil
}

// FirstSentence returns text up to the first period.
func FirstSentence(text string) string {
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return text[:i]
	}
	return text
}
