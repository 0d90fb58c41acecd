package bridge

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Server executes requests received on a stream on a local bus.
type Server struct {
	ReadWriter   io.ReadWriter
	Transport    bus.Transport
	FrameTimeout time.Duration

	served atomic.Int64
}

// NewServer creates a Server.
func NewServer(rw io.ReadWriter, t bus.Transport) *Server {
	return &Server{ReadWriter: rw, Transport: t, FrameTimeout: DefaultFrameTimeout}
}

// Served returns the number of requests executed.
func (s *Server) Served() int {
	return int(s.served.Load())
}

// HandleFrame executes one request and writes the reply.
func (s *Server) HandleFrame(f *Frame) error {
	if f.Code != CodeTransact {
		glog.V(2).Infof("bridge: ignored frame code 0x%02x", f.Code)
		return nil
	}
	req, err := ParseRequest(f)
	if err != nil {
		glog.Warningf("bridge: request seq %d: %v", f.Seq, err)
		return nil
	}
	r, st := s.Transport.Transact(req.Addr, req.W, req.N)
	s.served.Add(1)
	glog.V(4).Infof("bridge: 0x%02x % x -> %s % x", byte(req.Addr), req.W, st, r)
	_, err = Reply{Status: st, Data: r}.Frame(f.Seq).WriteTo(s.ReadWriter)
	return err
}

// Run serves requests until ctx is done or the stream fails.
func (s *Server) Run(ctx context.Context) error {
	l := &link{r: s.ReadWriter, frameTimeout: s.FrameTimeout, handle: s.HandleFrame}
	return l.run(ctx)
}
