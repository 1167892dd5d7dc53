package nut

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 10 * time.Second

	// maxLineLength bounds a single reply line. Variable values are short;
	// anything longer means we are not talking to upsd.
	maxLineLength = 64 * 1024
)

// Config holds the upsd endpoint and timeouts.
type Config struct {
	Host string
	Port int

	// ConnectTimeout bounds the TCP dial. Zero uses 5s.
	ConnectTimeout time.Duration

	// ReadTimeout bounds one command round trip. Zero uses 10s.
	ReadTimeout time.Duration
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Session is an open conversation with upsd.
// Every Session returned by a Dialer must be closed by the caller.
type Session interface {
	ListDevices(ctx context.Context) ([]string, error)
	ListVariables(ctx context.Context, deviceID string) (map[string]string, error)
	Close() error
}

// Dialer opens a new Session. Production code uses NewDialer; tests pass fakes.
type Dialer func(ctx context.Context) (Session, error)

// NewDialer returns a Dialer that connects to cfg on every call.
func NewDialer(cfg Config) Dialer {
	return func(ctx context.Context) (Session, error) {
		return Connect(ctx, cfg)
	}
}

// Client is a single TCP session with upsd speaking the NUT text protocol.
//
// Commands are serialised by a mutex, so a Client may be shared, although
// the monitor opens a fresh one for every poll.
type Client struct {
	cfg Config

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	closed bool
}

// Connect dials upsd.
//
// Parameters:
//   - ctx: Cancels the dial
//   - cfg: Endpoint and timeouts
//
// Returns:
//   - *Client: Open session
//   - error: wraps ErrConnectionFailed if the dial fails
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.Address(), err)
	}

	return &Client{
		cfg:    cfg,
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 4096),
	}, nil
}

// ListDevices returns the names of the UPS units upsd knows about, in the
// order upsd lists them.
func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	const cmd = "LIST UPS"

	var devices []string
	err := c.list(ctx, cmd, func(fields []string) error {
		// UPS <name> "<description>"
		if len(fields) < 2 || fields[0] != "UPS" {
			return &ProtocolError{Command: cmd, Line: strings.Join(fields, " ")}
		}
		devices = append(devices, fields[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// ListVariables returns every variable of deviceID with its value verbatim.
func (c *Client) ListVariables(ctx context.Context, deviceID string) (map[string]string, error) {
	cmd := "LIST VAR " + quoteArg(deviceID)

	vars := make(map[string]string)
	err := c.list(ctx, cmd, func(fields []string) error {
		// VAR <ups> <name> "<value>"
		if len(fields) != 4 || fields[0] != "VAR" {
			return &ProtocolError{Command: cmd, Line: strings.Join(fields, " ")}
		}
		vars[fields[2]] = fields[3]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vars, nil
}

// Close sends LOGOUT and closes the connection. Calling it twice is safe.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second)) //nolint:errcheck // best effort
	_, _ = c.conn.Write([]byte("LOGOUT\n"))                  //nolint:errcheck // best effort

	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("closing nut connection: %w", err)
	}
	return nil
}

// list sends a LIST command and feeds every line between BEGIN and END to fn.
func (c *Client) list(ctx context.Context, cmd string, fn func(fields []string) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrNotConnected
	}

	deadline := time.Now().Add(c.cfg.ReadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("setting deadline: %w", err)
	}

	// Unblock the read if ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now()) //nolint:errcheck // wakes the reader
	})
	defer stop()

	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return c.ioError(ctx, cmd, err)
	}

	first, err := c.readLine()
	if err != nil {
		return c.ioError(ctx, cmd, err)
	}
	if code, isErr := errorCode(first); isErr {
		return &ProtocolError{Command: cmd, Code: code}
	}

	// BEGIN LIST UPS / BEGIN LIST VAR <ups>
	begin, ok := splitFields(first)
	if !ok || len(begin) < 3 || begin[0] != "BEGIN" || begin[1] != "LIST" {
		return &ProtocolError{Command: cmd, Line: first}
	}
	end := "END " + first[len("BEGIN "):]

	for {
		line, err := c.readLine()
		if err != nil {
			return c.ioError(ctx, cmd, err)
		}
		if line == end {
			return nil
		}
		if code, isErr := errorCode(line); isErr {
			return &ProtocolError{Command: cmd, Code: code}
		}

		fields, ok := splitFields(line)
		if !ok {
			return &ProtocolError{Command: cmd, Line: line}
		}
		if err := fn(fields); err != nil {
			return err
		}
	}
}

func (c *Client) readLine() (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := c.reader.ReadLine()
		if err != nil {
			return "", err
		}
		buf = append(buf, chunk...)
		if len(buf) > maxLineLength {
			return "", fmt.Errorf("%w: reply line exceeds %d bytes", ErrProtocol, maxLineLength)
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}

// ioError prefers the context error when ctx ended the round trip.
func (c *Client) ioError(ctx context.Context, cmd string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("nut: %s: %w", cmd, ctxErr)
	}
	// The socket deadline can fire just before the context timer does.
	if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		return fmt.Errorf("nut: %s: %w", cmd, context.DeadlineExceeded)
	}
	return fmt.Errorf("nut: %s: %w", cmd, err)
}
