package feed

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler consumes one decoded websocket payload.
type Handler func(msg []byte)

// backoffSteps is the default reconnect schedule; the last step repeats.
var backoffSteps = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
}

const wsReadTimeout = 60 * time.Second

// Subscriber maintains one websocket subscription across reconnects. BingX
// gzips every frame and probes liveness with text "Ping" messages.
type Subscriber struct {
	name        string
	url         string
	subscribe   string
	handler     Handler
	onReconnect func()
	backoff     []time.Duration
}

// NewSubscriber builds a subscriber for one dataType channel. onReconnect
// may be nil.
func NewSubscriber(name, wsURL, subscribe string, handler Handler, onReconnect func()) *Subscriber {
	return &Subscriber{
		name:        name,
		url:         wsURL,
		subscribe:   subscribe,
		handler:     handler,
		onReconnect: onReconnect,
	}
}

// Run connects and reads until the context is cancelled, reconnecting with
// the saturated backoff schedule on any failure.
func (s *Subscriber) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.session(ctx)
		if ctx.Err() != nil {
			return
		}
		wait := s.delay(attempt)
		attempt++
		if s.onReconnect != nil {
			s.onReconnect()
		}
		log.Warn().
			Str("stream", s.name).
			Err(err).
			Dur("retry_in", wait).
			Msg("websocket stream dropped")
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// SetBackoff overrides the default reconnect schedule.
func (s *Subscriber) SetBackoff(steps []time.Duration) {
	if len(steps) > 0 {
		s.backoff = steps
	}
}

func (s *Subscriber) delay(attempt int) time.Duration {
	steps := s.backoff
	if len(steps) == 0 {
		steps = backoffSteps
	}
	if attempt >= len(steps) {
		return steps[len(steps)-1]
	}
	return steps[attempt]
}

// BackoffDelay returns the default reconnect delay for an attempt number.
func BackoffDelay(attempt int) time.Duration {
	if attempt >= len(backoffSteps) {
		return backoffSteps[len(backoffSteps)-1]
	}
	return backoffSteps[attempt]
}

// session runs one connection lifetime.
func (s *Subscriber) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(s.subscribe)); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.name, err)
	}
	log.Info().Str("stream", s.name).Str("url", s.url).Msg("websocket stream connected")

	// drop the connection when the context dies mid-read
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read %s: %w", s.name, err)
		}
		msg, err := inflate(raw)
		if err != nil {
			log.Warn().Str("stream", s.name).Err(err).Msg("undecodable frame dropped")
			continue
		}
		if bytes.Equal(msg, []byte("Ping")) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("Pong")); err != nil {
				return fmt.Errorf("pong %s: %w", s.name, err)
			}
			continue
		}
		s.handler(msg)
	}
}

// inflate transparently decompresses gzip frames; plain frames pass through.
func inflate(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gzip inflate: %w", err)
	}
	return out, nil
}
