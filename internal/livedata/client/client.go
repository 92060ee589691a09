// Package client wraps the live data WebSocket for Go consumers. It owns
// the connection lifecycle: reconnecting with linear backoff after a drop,
// and re-requesting a reading on a configurable interval while connected.
package client

import (
	"errors"
	"sync"
	"time"

	fwebsocket "github.com/fasthttp/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/livedata"
)

// State of the connection lifecycle.
type State int32

const (
	// Disconnected means no connection exists and none is being made.
	Disconnected State = iota
	// Connecting means a dial or reconnect is in progress.
	Connecting
	// Connected means the socket is up and the fetch timer is running.
	Connected
)

const (
	// DefaultRefreshRate is the fetch interval used until changed.
	DefaultRefreshRate = 5 * time.Second
	// MinRefreshRate and MaxRefreshRate bound SetRefreshRate.
	MinRefreshRate = time.Second
	MaxRefreshRate = 60 * time.Second

	// DefaultBaseDelay is multiplied by the attempt number for reconnect
	// backoff: 5s, 10s, 15s, ...
	DefaultBaseDelay = 5 * time.Second

	// maxReconnectAttempts caps automatic reconnects. Past it the client
	// gives up for good; recovery requires a fresh client.
	maxReconnectAttempts = 5
)

// ErrMaxReconnects is surfaced once the reconnect attempt cap is exceeded.
// No further automatic attempts are made.
var ErrMaxReconnects = errors.New("max reconnection attempts reached")

// Conn is the subset of the websocket connection the client uses,
// extracted so tests can substitute a scripted transport.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a connection to the gateway.
type Dialer func(url string) (Conn, error)

func defaultDialer(url string) (Conn, error) {
	conn, _, err := fwebsocket.DefaultDialer.Dial(url, nil) //nolint:bodyclose // resp body is nil on success
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// fetchMessage mirrors the gateway's request wire format.
type fetchMessage struct {
	Type string `json:"type"`
}

// pushMessage mirrors the gateway's push wire format.
type pushMessage struct {
	Event string           `json:"event"`
	Data  livedata.Reading `json:"data"`
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option { return func(c *Client) { c.dial = d } }

// WithBaseDelay replaces the reconnect backoff base delay.
func WithBaseDelay(d time.Duration) Option { return func(c *Client) { c.baseDelay = d } }

// WithRefreshRate sets the initial fetch interval, clamped like SetRefreshRate.
func WithRefreshRate(d time.Duration) Option {
	return func(c *Client) { c.refreshRate = clampRate(d) }
}

// OnReading registers the callback invoked for every pushed reading.
func OnReading(fn func(livedata.Reading)) Option { return func(c *Client) { c.onReading = fn } }

// OnError registers the callback invoked for terminal errors.
func OnError(fn func(error)) Option { return func(c *Client) { c.onError = fn } }

// Client manages one gateway connection.
type Client struct {
	url       string
	dial      Dialer
	baseDelay time.Duration
	onReading func(livedata.Reading)
	onError   func(error)

	mu          sync.Mutex
	state       State
	conn        Conn
	refreshRate time.Duration
	lastErr     error

	rateCh    chan time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a client for the given gateway URL. Call Start to connect.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:         url,
		dial:        defaultDialer,
		baseDelay:   DefaultBaseDelay,
		refreshRate: DefaultRefreshRate,
		rateCh:      make(chan time.Duration, 1),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start launches the connection loop in the background.
func (c *Client) Start() {
	go c.run()
}

// Close tears the client down: the connection, the fetch timer and any
// pending reconnect timer are all cancelled.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Err returns the last terminal error, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// RefreshRate returns the current fetch interval.
func (c *Client) RefreshRate() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refreshRate
}

// SetRefreshRate changes the fetch interval, clamped to [1s, 60s]. A live
// fetch timer is swapped in place without dropping the connection.
func (c *Client) SetRefreshRate(d time.Duration) {
	d = clampRate(d)

	c.mu.Lock()
	c.refreshRate = d
	c.mu.Unlock()

	// nudge a running serve loop; drop the stale value if one is pending
	select {
	case <-c.rateCh:
	default:
	}

	c.rateCh <- d
}

func clampRate(d time.Duration) time.Duration {
	if d < MinRefreshRate {
		return MinRefreshRate
	}

	if d > MaxRefreshRate {
		return MaxRefreshRate
	}

	return d
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fail records a terminal error and reports it.
func (c *Client) fail(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.state = Disconnected
	c.mu.Unlock()

	log.Error().Err(err).Str("url", c.url).Msg("live data client gave up")

	if c.onError != nil {
		c.onError(err)
	}
}

// run is the connect/reconnect loop. The attempt counter resets on every
// successful connect, so the cap applies to consecutive failures only.
func (c *Client) run() {
	attempt := 0

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.setState(Connecting)

		conn, err := c.dial(c.url)
		if err == nil {
			attempt = 0

			c.mu.Lock()
			c.conn = conn
			c.state = Connected
			c.lastErr = nil
			c.mu.Unlock()

			log.Debug().Str("url", c.url).Msg("live data client connected")

			err = c.serve(conn)

			_ = conn.Close()

			c.mu.Lock()
			c.conn = nil
			c.state = Disconnected
			c.mu.Unlock()

			if err == nil {
				// deliberate shutdown
				return
			}

			log.Warn().Err(err).Str("url", c.url).Msg("live data connection dropped")
		}

		attempt++
		if attempt > maxReconnectAttempts {
			c.fail(ErrMaxReconnects)

			return
		}

		// linear backoff: baseDelay * attempt number
		select {
		case <-c.done:
			return
		case <-time.After(c.baseDelay * time.Duration(attempt)):
		}
	}
}

// serve pumps one connection: a reader goroutine feeds pushes, while the
// fetch timer re-requests a reading at the refresh rate. Returns nil on
// Close, the read/write error otherwise.
func (c *Client) serve(conn Conn) error {
	readErr := make(chan error, 1)
	readings := make(chan livedata.Reading, 1)

	go func() {
		for {
			var push pushMessage

			if err := conn.ReadJSON(&push); err != nil {
				readErr <- err

				return
			}

			if push.Event != "sensorData" {
				continue
			}

			// drop rather than block when the serve loop is gone
			select {
			case readings <- push.Data:
			default:
			}
		}
	}()

	fetch := func() error {
		return conn.WriteJSON(fetchMessage{Type: "fetchData"})
	}

	// request a first reading right away, then per tick
	if err := fetch(); err != nil {
		return err
	}

	ticker := time.NewTicker(c.RefreshRate())
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return nil
		case err := <-readErr:
			return err
		case reading := <-readings:
			if c.onReading != nil {
				c.onReading(reading)
			}
		case d := <-c.rateCh:
			ticker.Reset(d)
		case <-ticker.C:
			if err := fetch(); err != nil {
				return err
			}
		}
	}
}
