package bridge

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
)

// DefaultFrameTimeout bounds the gap between two bytes of one frame.
const DefaultFrameTimeout = 100 * time.Millisecond

// FrameHandler is called for every frame received.
type FrameHandler func(*Frame) error

// link runs the receiving side of a byte stream until ctx is done, the
// reader fails or handle returns an error.
type link struct {
	r            io.Reader
	frameTimeout time.Duration
	parser       Parser
	handle       FrameHandler
}

func (l *link) run(ctx context.Context) error {
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)

	var frameTimer <-chan time.Time
	for {
		select {
		case bs := <-byteCh:
			for _, b := range bs {
				pr := l.parser.Parse(b)
				if pr.Dropped {
					glog.Warningf("bridge: corrupted frame dropped")
				}
				if pr.Frame != nil {
					if err := l.handle(pr.Frame); err != nil {
						return err
					}
				}
			}
			if l.parser.Receiving() {
				frameTimer = time.After(l.frameTimeout)
			} else {
				frameTimer = nil
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-frameTimer:
			if pr := l.parser.Timeout(); pr.Dropped {
				glog.Warningf("bridge: incomplete frame dropped")
			}
			frameTimer = nil
		}
	}
}

func (l *link) readLoop(ctx context.Context, byteCh chan<- []byte, errCh chan<- error) {
	for {
		buf := make([]byte, 64)
		n, err := l.r.Read(buf)
		if n > 0 {
			select {
			case byteCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
