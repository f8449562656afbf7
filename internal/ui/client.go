package ui

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a presentation client of a Hub. It reconnects whenever the
// connection drops until its context is done.
type Client struct {
	url   string
	retry time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the hub at url ("ws://host:port/ws"). retry is the
// pause between reconnect attempts.
func Dial(ctx context.Context, url string, retry time.Duration) (*Client, error) {
	log.Debug("Dialing hub", "url", url)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if retry <= 0 {
		retry = time.Second
	}

	return &Client{url: url, retry: retry, conn: conn}, nil
}

// Send writes one inbound frame, e.g. a command typed by the user.
func (c *Client) Send(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("hub not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Run reads frames and hands them to emit until ctx is done. Frames that
// fail to decode are skipped.
func (c *Client) Run(ctx context.Context, emit func(Message)) error {
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			c.conn.Close()
		}
	})
	defer stop()

	for {
		conn := c.current()
		if conn == nil {
			return ctx.Err()
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isClosed(err) {
				log.Warn("Hub closed the connection", "url", c.url)
			} else {
				log.Error("Failed to read from hub", "err", err)
			}
			if err := c.reconnect(ctx); err != nil {
				return err
			}
			log.Info("Reconnected to hub", "url", c.url)
			continue
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			log.Warn("Failed to parse hub frame", "frame", string(data), "err", err)
			continue
		}
		emit(m)
	}
}

// Close drops the connection. A running Run returns once its context is
// canceled.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()

	for {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			// Canceled while dialing: the AfterFunc already ran.
			if ctx.Err() != nil {
				conn.Close()
				return ctx.Err()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retry):
		}
	}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure)
}
