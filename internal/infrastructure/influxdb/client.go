package influxdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/domain"

	"github.com/nerrad567/sqlgate/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	healthTimeout  = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client records gateway executions as InfluxDB points. It implements
// audit.Sink and is safe for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	connected   atomic.Bool
	writeErrors atomic.Uint64
	onError     atomic.Pointer[func(error)]
}

// Connect pings the server and opens a batched, non-blocking write API on
// cfg.Bucket. It returns ErrDisabled when the section is turned off.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	switch {
	case err != nil:
		client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.URL, err)
	case !healthy:
		client.Close()
		return nil, fmt.Errorf("%w: %s did not answer ping", ErrConnectionFailed, cfg.URL)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	c.connected.Store(true)
	go c.watchWriteErrors(c.writeAPI.Errors())

	return c, nil
}

// clientOptions applies the batching settings, falling back to defaults
// for unset values.
func clientOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- flush is positive
	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds()))
}

// watchWriteErrors counts failed batch writes and hands them to the
// SetOnError callback. It returns when the write API is closed.
func (c *Client) watchWriteErrors(errs <-chan error) {
	for err := range errs {
		c.writeErrors.Add(1)
		if fn := c.onError.Load(); fn != nil {
			(*fn)(err)
		}
	}
}

// SetOnError registers fn for asynchronous write failures.
func (c *Client) SetOnError(fn func(err error)) {
	c.onError.Store(&fn)
}

// WriteErrors returns how many batch writes have failed.
func (c *Client) WriteErrors() uint64 {
	return c.writeErrors.Load()
}

// IsConnected reports the last known state; HealthCheck asks the server.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// HealthCheck asks the server for its health status.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	health, err := c.client.Health(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		msg := string(health.Status)
		if health.Message != nil {
			msg += ": " + *health.Message
		}
		return fmt.Errorf("%w: %s", ErrUnhealthy, msg)
	}
	return nil
}

// Flush blocks until queued points are written.
// It does nothing after Close.
func (c *Client) Flush() {
	if c.writeAPI == nil || !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

// Close writes any queued points and releases the client.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.connected.Swap(false) {
		c.writeAPI.Flush()
	}
	c.client.Close()
	return nil
}
