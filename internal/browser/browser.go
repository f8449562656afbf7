package browser

import (
	"fmt"
	log "log/slog"

	"github.com/pkg/browser"
)

// Opener opens pages in the system browser.
type Opener struct{}

func (Opener) Open(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// LogOpener only logs the page; used when the host has no browser.
type LogOpener struct{}

func (LogOpener) Open(url string) error {
	log.Info("Open page", "url", url)
	return nil
}
