package clickhouse

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Options describes how to reach ClickHouse. Zero fields take the default
// tag value.
type Options struct {
	Host     string
	Port     int    `default:"9000"`
	Database string `default:"default"`
	User     string `default:"default"`
	Password string

	MaxOpenConns    int           `default:"10"`
	MaxIdleConns    int           `default:"5"`
	ConnMaxLifetime time.Duration `default:"5m"`
	DialTimeout     time.Duration `default:"5s"`
	ReadTimeout     time.Duration `default:"10s"`
	// MaxExecutionTime is sent as the max_execution_time setting, in whole seconds.
	MaxExecutionTime time.Duration

	// HTTP selects the HTTP interface instead of the native protocol.
	HTTP bool
	// ReadOnly opens the session with readonly=2.
	ReadOnly bool
}

func (o Options) dsn() string {
	scheme := "clickhouse"
	if o.HTTP {
		scheme = "http"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(o.User, o.Password),
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + o.Database,
	}

	q := url.Values{}
	if o.DialTimeout > 0 {
		q.Set("dial_timeout", o.DialTimeout.String())
	}
	if o.ReadTimeout > 0 {
		q.Set("read_timeout", o.ReadTimeout.String())
	}
	if secs := int(o.MaxExecutionTime / time.Second); secs > 0 {
		q.Set("max_execution_time", strconv.Itoa(secs))
	}
	if o.ReadOnly {
		// 2 still permits per-query settings
		q.Set("readonly", "2")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
