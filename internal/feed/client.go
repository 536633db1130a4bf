// Package feed owns everything between a venue's websocket endpoint and the
// normalization queue: one resilient StreamClient per exchange, the venue
// wire-format parsers, the bounded queue, and the consumer that drains it
// into the order-book store.
package feed

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/popeflizzy/CryptoArbitrageBot/internal/domain"
	"github.com/popeflizzy/CryptoArbitrageBot/internal/metrics"
)

const (
	handshakeTimeout = 15 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 20 * time.Second

	// subscribeGap is the minimum spacing between consecutive subscribe
	// writes on one connection, to respect venue throttling.
	subscribeGap = time.Second
)

// Venue encapsulates everything exchange-specific: the endpoint, the
// subscribe handshake, and the payload-to-BookUpdate translation.
type Venue interface {
	Name() string
	URL() string

	// SubscribePayloads returns the raw handshake messages to send after
	// every (re)connect, in order.
	SubscribePayloads() ([][]byte, error)

	// Parse translates one raw message into a normalized update. It returns
	// (nil, nil) for well-formed messages that do not affect the book
	// (acks, heartbeats) and an error for malformed payloads.
	Parse(raw []byte) (*domain.BookUpdate, error)
}

// StreamClient maintains one logical subscription to one exchange and emits
// normalized updates onto the shared queue. Pure translation: it holds no
// book state of its own.
type StreamClient struct {
	venue   Venue
	queue   *Queue
	backoff *Backoff
	logger  *slog.Logger
	m       *metrics.Metrics

	malformed atomic.Uint64
}

// NewStreamClient creates a client for the given venue. m may be nil.
func NewStreamClient(venue Venue, queue *Queue, maxBackoff time.Duration, m *metrics.Metrics, logger *slog.Logger) *StreamClient {
	return &StreamClient{
		venue:   venue,
		queue:   queue,
		backoff: NewBackoff(maxBackoff),
		logger:  logger.With(slog.String("component", "stream_client"), slog.String("exchange", venue.Name())),
		m:       m,
	}
}

// Malformed returns the number of messages dropped as unparseable.
func (c *StreamClient) Malformed() uint64 {
	return c.malformed.Load()
}

// Run connects, subscribes, and consumes messages until ctx is cancelled,
// reconnecting with exponential backoff on any transport error. It only ever
// returns ctx.Err(): transport failures are recovered locally and never
// propagate to other clients.
func (c *StreamClient) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := c.backoff.Next()
		if c.m != nil {
			c.m.Reconnects.WithLabelValues(c.venue.Name()).Inc()
		}
		c.logger.Warn("stream disconnected, reconnecting",
			slog.String("error", errString(err)),
			slog.Duration("delay", delay),
			slog.Int("attempt", c.backoff.Attempt()),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// runConnection performs one dial-subscribe-read cycle and returns the
// transport error that ended it.
func (c *StreamClient) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	conn, _, err := dialer.DialContext(dialCtx, c.venue.URL(), nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	// Closing the connection on cancellation unblocks the pending read, so
	// the client stops within one I/O wait cycle.
	connCtx, connCancel := context.WithCancel(ctx)
	defer connCancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	c.backoff.Reset()
	c.logger.Info("connected")

	if err := c.subscribe(connCtx, conn); err != nil {
		return err
	}

	go c.pingLoop(connCtx, conn)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(raw)
	}
}

// subscribe sends the venue handshake, spacing consecutive writes by at
// least subscribeGap.
func (c *StreamClient) subscribe(ctx context.Context, conn *websocket.Conn) error {
	payloads, err := c.venue.SubscribePayloads()
	if err != nil {
		return err
	}

	for i, p := range payloads {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(subscribeGap):
			}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, p); err != nil {
			return err
		}
	}
	c.logger.Info("subscribed", slog.Int("messages", len(payloads)))
	return nil
}

func (c *StreamClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage translates one raw payload. Malformed messages are counted
// and dropped; they are never fatal.
func (c *StreamClient) handleMessage(raw []byte) {
	update, err := c.venue.Parse(raw)
	if err != nil {
		c.malformed.Add(1)
		if c.m != nil {
			c.m.Malformed.WithLabelValues(c.venue.Name()).Inc()
		}
		return
	}
	if update == nil {
		return
	}
	if c.m != nil {
		c.m.Messages.WithLabelValues(c.venue.Name()).Inc()
	}
	c.queue.TryPut(update)
}

func errString(err error) string {
	if err == nil {
		return "eof"
	}
	return err.Error()
}
