// Package feed streams new-token notifications from the PumpPortal websocket.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
)

// Config configures websocket behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// BufferSize is the capacity of the events channel.
	BufferSize int
}

// DefaultConfig returns default websocket configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
		BufferSize:        256,
	}
}

// PumpPortalClient subscribes to token creation events and emits them on
// Events. Run owns the connection and reconnects with exponential backoff.
type PumpPortalClient struct {
	endpoint string
	config   Config
	logger   *zap.Logger
	metrics  *observability.Metrics

	events chan domain.NewTokenEvent

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}

	received atomic.Int64
}

// NewPumpPortalClient creates a client. It does not connect until Run.
func NewPumpPortalClient(endpoint string, config *Config, logger *zap.Logger, metrics *observability.Metrics) *PumpPortalClient {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PumpPortalClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		events:   make(chan domain.NewTokenEvent, cfg.BufferSize),
		done:     make(chan struct{}),
	}
}

// Events returns the notification stream. It is closed when Run returns.
func (c *PumpPortalClient) Events() <-chan domain.NewTokenEvent {
	return c.events
}

// Received returns the number of events decoded so far.
func (c *PumpPortalClient) Received() int64 {
	return c.received.Load()
}

// Run connects, subscribes and reads until ctx is done or Close is called.
// Connection failures are retried with backoff and never returned.
func (c *PumpPortalClient) Run(ctx context.Context) error {
	defer close(c.events)

	delay := c.config.ReconnectDelay
	for {
		if c.stopped(ctx) {
			return nil
		}

		err := c.session(ctx)
		if c.stopped(ctx) {
			return nil
		}

		if errors.Is(err, errSessionHealthy) {
			delay = c.config.ReconnectDelay
		} else if err != nil {
			c.logger.Warn("feed connection lost", zap.Error(err), zap.Duration("retry_in", delay))
		}
		if c.metrics != nil {
			c.metrics.FeedReconnects.Inc()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-time.After(delay):
		}

		// Exponential backoff
		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// errSessionHealthy marks a session that delivered at least one frame
// before dropping, which resets the backoff.
var errSessionHealthy = errors.New("session ended after successful reads")

// session runs one connection from dial to the first read error.
func (c *PumpPortalClient) session(ctx context.Context) error {
	if err := c.connect(ctx); err != nil {
		return err
	}
	defer c.dropConn()

	if err := c.subscribe(); err != nil {
		return err
	}
	c.logger.Info("feed subscribed", zap.String("endpoint", c.endpoint))

	pingDone := make(chan struct{})
	defer close(pingDone)
	go c.pingLoop(ctx, pingDone)

	healthy := false
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return fmt.Errorf("connection closed")
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if healthy {
				c.logger.Warn("feed read failed", zap.Error(err))
				return errSessionHealthy
			}
			return fmt.Errorf("read: %w", err)
		}
		healthy = true

		if !c.handleMessage(ctx, message) {
			return nil
		}
	}
}

// connect establishes WebSocket connection.
func (c *PumpPortalClient) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	return nil
}

func (c *PumpPortalClient) dropConn() {
	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()
}

// subscribe sends the token creation subscription. Called on every
// (re)connect since subscriptions do not survive the socket.
func (c *PumpPortalClient) subscribe() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(subscribeRequest{Method: "subscribeNewToken"}); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// handleMessage decodes one frame. Returns false when the client is stopping.
func (c *PumpPortalClient) handleMessage(ctx context.Context, message []byte) bool {
	var msg tokenMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Debug("feed frame not decodable", zap.Error(err))
		return true
	}

	switch {
	case msg.Errors != "":
		c.logger.Warn("feed error frame", zap.String("errors", msg.Errors))
		return true
	case msg.Mint == "" && msg.Message != "":
		c.logger.Debug("feed ack", zap.String("message", msg.Message))
		return true
	case msg.TxType != "" && msg.TxType != "create":
		return true
	}

	event := domain.NewTokenEvent{
		Mint:         msg.Mint,
		Symbol:       msg.Symbol,
		Name:         msg.Name,
		BondingCurve: msg.BondingCurveKey,
		MarketCapSOL: msg.MarketCapSol,
		Signature:    msg.Signature,
		Pairs:        msg.Pairs,
		ReceivedAt:   time.Now().UnixMilli(),
	}
	c.received.Add(1)

	// Block rather than drop; the buffer absorbs bursts.
	select {
	case c.events <- event:
		return true
	case <-ctx.Done():
		return false
	case <-c.done:
		return false
	}
}

// pingLoop sends periodic ping frames to keep connection alive. It also
// closes the socket on cancellation so a blocked read returns.
func (c *PumpPortalClient) pingLoop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			c.dropConn()
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.logger.Debug("feed ping failed", zap.Error(err))
				}
			}
			c.connMu.Unlock()
		}
	}
}

// Close stops Run and closes the connection. Safe to call more than once.
func (c *PumpPortalClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()
	return nil
}

func (c *PumpPortalClient) stopped(ctx context.Context) bool {
	return ctx.Err() != nil || c.closed.Load()
}

// WebSocket message types

type subscribeRequest struct {
	Method string   `json:"method"`
	Keys   []string `json:"keys,omitempty"`
}

type tokenMessage struct {
	Signature       string        `json:"signature"`
	Mint            string        `json:"mint"`
	TxType          string        `json:"txType"`
	BondingCurveKey string        `json:"bondingCurveKey"`
	MarketCapSol    float64       `json:"marketCapSol"`
	Name            string        `json:"name"`
	Symbol          string        `json:"symbol"`
	Pairs           []domain.Pair `json:"pairs"`

	Message string `json:"message"`
	Errors  string `json:"errors"`
}
