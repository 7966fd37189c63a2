package fcm

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

const (
	DefaultTimeout                 = 5 * time.Second
	DefaultMaxConnections          = 100
	DefaultMaxKeepaliveConnections = 20
	DefaultKeepaliveExpiry         = 5 * time.Second
)

// RequestTimeout holds the timeouts of one HTTP request. A zero value disables that timeout.
type RequestTimeout struct {
	// Connect bounds establishing the connection, TLS handshake included.
	Connect time.Duration `yaml:"connect"`

	// Read bounds each read from the socket, not the whole response.
	Read time.Duration `yaml:"read"`

	// Write bounds each write to the socket.
	Write time.Duration `yaml:"write"`

	// Pool bounds waiting for a connection when MaxConnections are all busy.
	Pool time.Duration `yaml:"pool"`
}

// DefaultRequestTimeout is 5 seconds for each phase.
func DefaultRequestTimeout() RequestTimeout {
	return RequestTimeout{
		Connect: DefaultTimeout,
		Read:    DefaultTimeout,
		Write:   DefaultTimeout,
		Pool:    DefaultTimeout,
	}
}

// NoTimeout disables every timeout.
func NoTimeout() RequestTimeout {
	return RequestTimeout{}
}

func (t RequestTimeout) validate() error {
	if t.Connect < 0 || t.Read < 0 || t.Write < 0 || t.Pool < 0 {
		return fmt.Errorf("timeout must not be negative: %+v", t)
	}

	return nil
}

// RequestLimits controls the connection pool.
type RequestLimits struct {
	MaxConnections          int           `yaml:"maxConnections"`
	MaxKeepaliveConnections int           `yaml:"maxKeepaliveConnections"`
	KeepaliveExpiry         time.Duration `yaml:"keepaliveExpiry"`
}

func DefaultRequestLimits() RequestLimits {
	return RequestLimits{
		MaxConnections:          DefaultMaxConnections,
		MaxKeepaliveConnections: DefaultMaxKeepaliveConnections,
		KeepaliveExpiry:         DefaultKeepaliveExpiry,
	}
}

func (l RequestLimits) validate() error {
	if l.MaxConnections < 0 || l.MaxKeepaliveConnections < 0 || l.KeepaliveExpiry < 0 {
		return fmt.Errorf("limits must not be negative: %+v", l)
	}

	return nil
}

// newTransport builds the pooled transport every request of a Client goes through.
func newTransport(timeout RequestTimeout, limits RequestLimits, useHTTP2 bool) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   timeout.Connect,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			if timeout.Read <= 0 && timeout.Write <= 0 {
				return conn, nil
			}

			return &deadlineConn{Conn: conn, read: timeout.Read, write: timeout.Write}, nil
		},
		TLSHandshakeTimeout: timeout.Connect,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxConnsPerHost:     limits.MaxConnections,
		MaxIdleConns:        limits.MaxKeepaliveConnections,
		MaxIdleConnsPerHost: limits.MaxKeepaliveConnections,
		IdleConnTimeout:     limits.KeepaliveExpiry,
		ForceAttemptHTTP2:   useHTTP2,
	}

	if useHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("configure http2 transport: %w", err)
		}
	}

	return transport, nil
}

// deadlineConn moves the read or write deadline forward before every socket operation.
// Writing also moves the read deadline, the response must start within Read of the request.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.read > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
			return 0, err
		}
	}

	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.write > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.write)); err != nil {
			return 0, err
		}
	}

	n, err := c.Conn.Write(b)
	if err == nil && c.read > 0 {
		// the transport keeps a read pending on idle connections, push it past the request
		err = c.Conn.SetReadDeadline(time.Now().Add(c.read))
	}

	return n, err
}

// poolTimer cancels a request that waited longer than d for a connection.
type poolTimer struct {
	d      time.Duration
	cancel context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	got      bool
	timedOut bool
}

// withPoolTimeout returns a context whose request is cancelled when getting a connection takes longer than d.
// Call stop once the request is done.
func withPoolTimeout(ctx context.Context, d time.Duration) (context.Context, *poolTimer) {
	ctx, cancel := context.WithCancel(ctx)
	p := &poolTimer{d: d, cancel: cancel}
	if d <= 0 {
		return ctx, p
	}

	trace := &httptrace.ClientTrace{
		GetConn: func(string) {
			p.mu.Lock()
			defer p.mu.Unlock()

			if p.timer == nil && !p.got {
				p.timer = time.AfterFunc(p.d, p.expire)
			}
		},
		GotConn: func(httptrace.GotConnInfo) {
			p.mu.Lock()
			defer p.mu.Unlock()

			p.got = true
			if p.timer != nil {
				p.timer.Stop()
			}
		},
	}

	return httptrace.WithClientTrace(ctx, trace), p
}

func (p *poolTimer) expire() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.got {
		return
	}

	p.timedOut = true
	p.cancel()
}

// err replaces the cancellation caused by the pool timer with errPoolTimeout.
func (p *poolTimer) err(err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil && p.timedOut {
		return fmt.Errorf("%w: %s", errPoolTimeout, err)
	}

	return err
}

func (p *poolTimer) stop() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	p.cancel()
}
