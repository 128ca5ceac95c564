package clickhouse

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/creasty/defaults"
)

func TestOptionsDSN(t *testing.T) {
	dsn := Options{
		Host:             "ch.local",
		Port:             9000,
		Database:         "market",
		User:             "reader",
		Password:         "p@ss",
		DialTimeout:      2 * time.Second,
		MaxExecutionTime: 30 * time.Second,
		ReadOnly:         true,
	}.dsn()

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse dsn %q: %v", dsn, err)
	}
	if u.Scheme != "clickhouse" || u.Host != "ch.local:9000" || u.Path != "/market" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
	if pw, _ := u.User.Password(); pw != "p@ss" {
		t.Fatalf("password not preserved: %s", dsn)
	}
	q := u.Query()
	if q.Get("readonly") != "2" || q.Get("max_execution_time") != "30" || q.Get("dial_timeout") != "2s" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestOptionsDSNHTTP(t *testing.T) {
	dsn := Options{Host: "h", Port: 8123, Database: "d", HTTP: true}.dsn()
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	if u.Scheme != "http" || u.RawQuery != "" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{Host: "h"}
	if err := defaults.Set(&o); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if o.Port != 9000 || o.Database != "default" || o.User != "default" || o.DialTimeout != 5*time.Second {
		t.Fatalf("unexpected defaults %+v", o)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(context.Background(), Options{}); !errors.Is(err, ErrNoHost) {
		t.Fatalf("expected ErrNoHost, got %v", err)
	}
}
