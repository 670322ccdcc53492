//go:build statsview
// +build statsview

package statsview

import (
	"log"
	"net/http"
	"time"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Server is a running chart server
type Server struct {
	addr string
	mgr  *statsview.ViewManager
}

// Start serves the charts on addr, sampling every interval. The listener
// runs in its own goroutine; failures after startup are logged.
func Start(addr string, interval time.Duration) (*Server, error) {
	if addr == "" {
		addr = DefaultAddress
	}
	opts := []viewer.Option{viewer.WithAddr(addr)}
	if interval > 0 {
		opts = append(opts, viewer.WithInterval(int(interval/time.Millisecond)))
	}
	viewer.SetConfiguration(opts...)

	s := &Server{addr: addr, mgr: statsview.New()}
	go func() {
		if err := s.mgr.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("[STATSVIEW] server on %s stopped: %v", addr, err)
		}
	}()
	return s, nil
}

// URL returns the chart page address
func (s *Server) URL() string {
	if s == nil {
		return ""
	}
	return "http://" + s.addr + chartPath
}

// Stop shuts the server down
func (s *Server) Stop() {
	if s == nil {
		return
	}
	s.mgr.Stop()
}
