// Package nuttest provides an in-memory nut.Session for tests.
package nuttest

import (
	"context"
	"sort"
	"sync"

	"github.com/nerrad567/ups-monitor/internal/nut"
)

// Server is a scripted upsd. Zero value has no devices.
type Server struct {
	mu sync.Mutex

	// Devices maps device id to its variables.
	Devices map[string]map[string]string

	// DialErr, ListErr and VarErrs inject failures.
	DialErr error
	ListErr error
	VarErrs map[string]error

	dials  int
	closes int
}

// Dialer returns a nut.Dialer backed by s.
func (s *Server) Dialer() nut.Dialer {
	return func(ctx context.Context) (nut.Session, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dials++
		if s.DialErr != nil {
			return nil, s.DialErr
		}
		return &session{srv: s}, nil
	}
}

// Dials returns how many sessions were requested.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Closes returns how many sessions were closed.
func (s *Server) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Set replaces one device's variables.
func (s *Server) Set(id string, vars map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Devices == nil {
		s.Devices = map[string]map[string]string{}
	}
	s.Devices[id] = vars
}

type session struct {
	srv *Server
}

func (c *session) ListDevices(ctx context.Context) ([]string, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.srv.ListErr != nil {
		return nil, c.srv.ListErr
	}
	ids := make([]string, 0, len(c.srv.Devices))
	for id := range c.srv.Devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *session) ListVariables(ctx context.Context, id string) (map[string]string, error) {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.srv.VarErrs[id]; err != nil {
		return nil, err
	}
	vars, ok := c.srv.Devices[id]
	if !ok {
		return nil, &nut.ProtocolError{Command: "LIST VAR " + id, Code: "UNKNOWN-UPS"}
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out, nil
}

func (c *session) Close() error {
	c.srv.mu.Lock()
	defer c.srv.mu.Unlock()
	c.srv.closes++
	return nil
}
