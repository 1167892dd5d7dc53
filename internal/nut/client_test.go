package nut

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeUPSD answers NUT commands from a canned reply table.
type fakeUPSD struct {
	ln      net.Listener
	replies map[string]string

	mu       sync.Mutex
	commands []string
	wg       sync.WaitGroup
}

func startFakeUPSD(t *testing.T, replies map[string]string) *fakeUPSD {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeUPSD{ln: ln, replies: replies}
	f.wg.Add(1)
	go f.serve()
	t.Cleanup(func() {
		ln.Close() //nolint:errcheck // Test cleanup
		f.wg.Wait()
	})
	return f
}

func (f *fakeUPSD) serve() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.handle(conn)
	}
}

func (f *fakeUPSD) handle(conn net.Conn) {
	defer f.wg.Done()
	defer conn.Close() //nolint:errcheck // Test cleanup

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		cmd := scanner.Text()
		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		if cmd == "LOGOUT" {
			conn.Write([]byte("OK Goodbye\n")) //nolint:errcheck // Test helper
			return
		}
		reply, ok := f.replies[cmd]
		if !ok {
			reply = "ERR UNKNOWN-COMMAND\n"
		}
		conn.Write([]byte(reply)) //nolint:errcheck // Test helper
	}
}

func (f *fakeUPSD) config() Config {
	addr := f.ln.Addr().(*net.TCPAddr)
	return Config{Host: "127.0.0.1", Port: addr.Port, ReadTimeout: 2 * time.Second}
}

func (f *fakeUPSD) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

const listUPSReply = `BEGIN LIST UPS
UPS ups1 "Server room unit"
UPS ups2 "Office"
END LIST UPS
`

const listVarReply = `BEGIN LIST VAR ups1
VAR ups1 battery.charge "100"
VAR ups1 input.voltage "230.0 V"
VAR ups1 ups.status "OL CHRG"
VAR ups1 device.mfr "APC \"Smart\" \\ UPS"
END LIST VAR ups1
`

func TestClient_ListDevices(t *testing.T) {
	srv := startFakeUPSD(t, map[string]string{"LIST UPS": listUPSReply})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	devices, err := c.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if strings.Join(devices, ",") != "ups1,ups2" {
		t.Errorf("ListDevices() = %v, want [ups1 ups2]", devices)
	}
}

func TestClient_ListVariables(t *testing.T) {
	srv := startFakeUPSD(t, map[string]string{"LIST VAR ups1": listVarReply})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	vars, err := c.ListVariables(context.Background(), "ups1")
	if err != nil {
		t.Fatalf("ListVariables() error = %v", err)
	}

	want := map[string]string{
		"battery.charge": "100",
		"input.voltage":  "230.0 V",
		"ups.status":     "OL CHRG",
		"device.mfr":     `APC "Smart" \ UPS`,
	}
	if len(vars) != len(want) {
		t.Fatalf("ListVariables() returned %d vars, want %d", len(vars), len(want))
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("vars[%q] = %q, want %q", k, vars[k], v)
		}
	}
}

func TestClient_ErrReply(t *testing.T) {
	srv := startFakeUPSD(t, map[string]string{"LIST VAR ghost": "ERR UNKNOWN-UPS\n"})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	_, err = c.ListVariables(context.Background(), "ghost")
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("ListVariables() error = %v, want ErrProtocol", err)
	}
	var pe *ProtocolError
	if !errors.As(err, &pe) || pe.Code != "UNKNOWN-UPS" {
		t.Errorf("ProtocolError code = %+v, want UNKNOWN-UPS", pe)
	}
}

func TestClient_MalformedReply(t *testing.T) {
	srv := startFakeUPSD(t, map[string]string{
		"LIST UPS": "BEGIN LIST UPS\nGARBAGE\nEND LIST UPS\n",
	})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	if _, err := c.ListDevices(context.Background()); !errors.Is(err, ErrProtocol) {
		t.Errorf("ListDevices() error = %v, want ErrProtocol", err)
	}
}

func TestClient_CloseSendsLogout(t *testing.T) {
	srv := startFakeUPSD(t, map[string]string{"LIST UPS": listUPSReply})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := c.ListDevices(context.Background()); err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.ListDevices(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("ListDevices() after Close error = %v, want ErrNotConnected", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cmds := srv.seen()
		if len(cmds) == 2 && cmds[1] == "LOGOUT" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("commands = %v, want [LIST UPS LOGOUT]", srv.seen())
}

func TestConnect_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close() //nolint:errcheck // free the port so the dial is refused

	_, err = Connect(context.Background(), Config{Host: "127.0.0.1", Port: port, ConnectTimeout: time.Second})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if !strings.Contains(err.Error(), strconv.Itoa(port)) {
		t.Errorf("Connect() error %q should name the address", err)
	}
}

func TestClient_ContextCancelUnblocksRead(t *testing.T) {
	// Reply starts a list but never ends it.
	srv := startFakeUPSD(t, map[string]string{"LIST UPS": "BEGIN LIST UPS\n"})

	c, err := Connect(context.Background(), srv.config())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close() //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = c.ListDevices(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ListDevices() error = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("ListDevices() did not honour the context deadline")
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		line   string
		want   []string
		wantOK bool
	}{
		{`UPS ups1 "Server room"`, []string{"UPS", "ups1", "Server room"}, true},
		{`VAR u x ""`, []string{"VAR", "u", "x", ""}, true},
		{`VAR u x "a \"b\" \\c"`, []string{"VAR", "u", "x", `a "b" \c`}, true},
		{`  spaced   out  `, []string{"spaced", "out"}, true},
		{`VAR u x "unterminated`, nil, false},
	}

	for _, tt := range tests {
		got, ok := splitFields(tt.line)
		if ok != tt.wantOK {
			t.Errorf("splitFields(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			continue
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitFields(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestQuoteArg(t *testing.T) {
	tests := map[string]string{
		"ups1":     "ups1",
		"my ups":   `"my ups"`,
		`a"b`:      `"a\"b"`,
		"":         `""`,
		`back\sla`: `"back\\sla"`,
	}
	for in, want := range tests {
		if got := quoteArg(in); got != want {
			t.Errorf("quoteArg(%q) = %q, want %q", in, got, want)
		}
	}
}
