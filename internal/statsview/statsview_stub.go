//go:build !statsview
// +build !statsview

package statsview

import "time"

// Server is a running chart server
type Server struct{}

// Start always fails without the statsview build tag
func Start(addr string, interval time.Duration) (*Server, error) {
	return nil, ErrUnavailable
}

// URL returns the chart page address
func (s *Server) URL() string { return "" }

// Stop shuts the server down
func (s *Server) Stop() {}
