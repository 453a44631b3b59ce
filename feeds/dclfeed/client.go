package dclfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	dcl "github.com/defistate/dclstate-client-go/protocols/dcl"
	dclindexer "github.com/defistate/dclstate-client-go/protocols/dcl/indexer"
)

// Constants for reconnection logic
const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 30 * time.Second

	// logPath is the backfill endpoint; both height bounds are inclusive.
	logPath = "/get-dcl-pool-log"

	defaultFetchTimeout = 30 * time.Second
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the configuration for the feed client.
type Config struct {
	// BaseURL is the HTTP root of the indexer, used for backfill fetches.
	BaseURL string
	// StreamURL is the websocket endpoint for the live tail. Optional; a
	// client without it only backfills.
	StreamURL  string
	Logger     Logger
	BufferSize uint
	HTTPClient *http.Client
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("config: BaseURL is required")
	}
	if c.BufferSize < 1 {
		return errors.New("config: BufferSize must be greater than 0")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Client fetches ordered operation records from the indexer. Backfill goes
// through HTTP height-range queries; the live tail arrives over a websocket.
// Both paths share one (height, seq) cursor, so a record delivered twice is
// dropped no matter which path carried it.
type Client struct {
	baseURL    string
	streamURL  string
	httpClient *http.Client
	logger     Logger
	indexer    *dclindexer.Indexer

	eventCh chan *dcl.Event
	errCh   chan error

	lastHeight uint64
	lastSeq    uint64
	primed     bool
}

// NewClient creates a new feed client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		streamURL:  cfg.StreamURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
		indexer:    dclindexer.New(),
		eventCh:    make(chan *dcl.Event, cfg.BufferSize),
		errCh:      make(chan error, 1),
	}, nil
}

// Events returns a read-only channel carrying live tail records.
func (c *Client) Events() <-chan *dcl.Event {
	return c.eventCh
}

// Err returns a read-only channel for receiving fatal (unrecoverable) errors.
func (c *Client) Err() <-chan error {
	return c.errCh
}

// FetchRange pulls the records with heights in [startHeight, endHeight] and
// validates their ordering. The client's cursor advances past the fetched
// records, so a later tail rejects anything the backfill already covered.
func (c *Client) FetchRange(ctx context.Context, startHeight, endHeight uint64) ([]*dcl.Event, error) {
	endpoint, err := url.Parse(c.baseURL + logPath)
	if err != nil {
		return nil, fmt.Errorf("feed url: %w", err)
	}
	query := endpoint.Query()
	query.Set("start_block_id", strconv.FormatUint(startHeight, 10))
	query.Set("end_block_id", strconv.FormatUint(endHeight, 10))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch [%d, %d]: %w", startHeight, endHeight, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch [%d, %d]: unexpected status %s", startHeight, endHeight, resp.Status)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed fetch [%d, %d]: read body: %w", startHeight, endHeight, err)
	}

	events, err := c.indexer.Decode(raw)
	if err != nil {
		return nil, err
	}
	indexed, err := c.indexer.Index(events)
	if err != nil {
		return nil, err
	}

	accepted := make([]*dcl.Event, 0, indexed.Len())
	for _, ev := range indexed.All() {
		if !c.accept(ev) {
			c.logger.Warn("Discarding already covered feed record",
				"height", ev.Height, "seq", ev.Seq, "kind", ev.Kind)
			continue
		}
		accepted = append(accepted, ev)
	}
	return accepted, nil
}

// Tail starts the live websocket loop. It reconnects with backoff until ctx
// is cancelled; a missing StreamURL is a fatal configuration error.
func (c *Client) Tail(ctx context.Context) {
	go c.run(ctx)
}

func (c *Client) run(ctx context.Context) {
	defer close(c.errCh)

	if c.streamURL == "" {
		c.errCh <- errors.New("feed tail: no stream url configured")
		return
	}

	reconnectDelay := initialReconnectDelay
	for {
		if ctx.Err() != nil {
			c.logger.Info("Feed tail context canceled, shutting down.")
			return
		}

		c.logger.Info("Connecting to feed stream", "url", c.streamURL)
		err := c.tailOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("Feed tail context canceled, shutting down.")
				return
			}
			c.logger.Error("Feed stream failed, will reconnect...", "error", err, "delay", reconnectDelay)
			time.Sleep(reconnectDelay)
			reconnectDelay = min(reconnectDelay*2, maxReconnectDelay)
			continue
		}
		reconnectDelay = initialReconnectDelay
	}
}

func (c *Client) tailOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return fmt.Errorf("dial feed stream: %w", err)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	c.logger.Info("Feed stream connected. Waiting for records...")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read feed stream: %w", err)
		}

		var ev dcl.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.Error("Error decoding feed record", "error", err)
			continue
		}
		if !c.accept(&ev) {
			c.logger.Warn("Discarding duplicate or out-of-order feed record",
				"height", ev.Height, "seq", ev.Seq, "kind", ev.Kind,
				"last_height", c.lastHeight, "last_seq", c.lastSeq)
			continue
		}

		select {
		case c.eventCh <- &ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// accept advances the (height, seq) cursor. Records at or behind the cursor
// are rejected.
func (c *Client) accept(ev *dcl.Event) bool {
	if c.primed {
		if ev.Height < c.lastHeight {
			return false
		}
		if ev.Height == c.lastHeight && ev.Seq <= c.lastSeq {
			return false
		}
	}
	c.primed = true
	c.lastHeight, c.lastSeq = ev.Height, ev.Seq
	return true
}
