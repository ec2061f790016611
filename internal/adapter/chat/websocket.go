package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/auth"
	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	"golang.org/x/net/websocket"
)

const (
	maxFrameBytes = 16 << 10
	writeTimeout  = 5 * time.Second
)

// client is one websocket connection.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	author string
	// named is set when author comes from a verified identity.
	named bool
}

func (c *client) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

type joinData struct {
	Author string `json:"author"`
}

type sendData struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type errorData struct {
	Error string `json:"error"`
}

// Handler upgrades requests to websocket connections. allowedOrigins
// restricts the Origin header; "*" accepts any origin. Claims attached by
// auth.Optional name the sender.
func (h *Hub) Handler(allowedOrigins []string) http.Handler {
	return websocket.Server{
		Handshake: func(cfg *websocket.Config, r *http.Request) error {
			return checkOrigin(cfg, r, allowedOrigins)
		},
		Handler: h.serve,
	}
}

func checkOrigin(cfg *websocket.Config, r *http.Request, allowed []string) error {
	if slices.Contains(allowed, "*") {
		return nil
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("parse origin: %w", err)
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimRight(a, "/"), u.Scheme+"://"+u.Host) {
			cfg.Origin = u
			return nil
		}
	}
	return fmt.Errorf("origin %q not allowed", origin)
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.MaxPayloadBytes = maxFrameBytes
	c := &client{conn: conn, send: make(chan []byte, h.queueSize)}
	if claims, ok := auth.ClaimsFromContext(conn.Request().Context()); ok {
		c.author, c.named = claims.DisplayName(), true
	}

	h.metrics.ChatClients.Inc()
	h.logger.Info("chat client connected", "remote_addr", conn.Request().RemoteAddr, "author", c.author)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	h.readLoop(c)

	h.leave(c)
	close(c.send)
	<-done
	conn.Close()
	h.metrics.ChatClients.Dec()
	h.logger.Info("chat client disconnected", "remote_addr", conn.Request().RemoteAddr)
}

func (h *Hub) readLoop(c *client) {
	for {
		var frame []byte
		if err := websocket.Message.Receive(c.conn, &frame); err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Debug("chat read ended", "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			h.reply(c, "malformed frame")
			continue
		}

		switch env.Event {
		case domain.EventJoinChat:
			var d joinData
			if len(env.Data) > 0 {
				if err := json.Unmarshal(env.Data, &d); err != nil {
					h.reply(c, "malformed join_chat data")
					continue
				}
			}
			if !c.named && strings.TrimSpace(d.Author) != "" {
				c.author = strings.TrimSpace(d.Author)
			}
			h.join(c)
		case domain.EventSendMessage:
			var d sendData
			if err := json.Unmarshal(env.Data, &d); err != nil {
				h.reply(c, "malformed send_message data")
				continue
			}
			author := c.author
			if !c.named && strings.TrimSpace(d.Author) != "" {
				author = d.Author
			}
			if _, err := h.Post(d.Text, author); err != nil {
				h.reply(c, err.Error())
			}
		default:
			h.reply(c, fmt.Sprintf("unknown event %q", env.Event))
		}
	}
}

func (h *Hub) writeLoop(c *client, done chan<- struct{}) {
	defer close(done)
	for frame := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			continue
		}
		if err := websocket.Message.Send(c.conn, string(frame)); err != nil {
			h.logger.Debug("chat write failed", "error", err)
			c.conn.Close()
			return
		}
	}
}

// reply sends an error event to c only.
func (h *Hub) reply(c *client, reason string) {
	frame, err := encode(domain.EventError, errorData{Error: reason})
	if err != nil {
		return
	}
	if !c.enqueue(frame) {
		h.metrics.ChatDropped.Inc()
	}
}
