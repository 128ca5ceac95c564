// Package clickhouse opens a database/sql pool on the clickhouse-go driver.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/creasty/defaults"
)

var ErrNoHost = errors.New("clickhouse: host is required")

type Client struct {
	db   *sql.DB
	opts Options
}

// NewClient opens the pool and pings the server within DialTimeout.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Host == "" {
		return nil, ErrNoHost
	}
	if err := defaults.Set(&opts); err != nil {
		return nil, fmt.Errorf("clickhouse options: %w", err)
	}

	db, err := sql.Open("clickhouse", opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s:%d: %w", opts.Host, opts.Port, err)
	}
	return &Client{db: db, opts: opts}, nil
}

func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

func (c *Client) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

func (c *Client) Database() string { return c.opts.Database }

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
