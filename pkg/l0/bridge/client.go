package bridge

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// DefaultTimeout bounds the wait for a reply.
const DefaultTimeout = 100 * time.Millisecond

// Result is the result of a request using Do.
type Result struct {
	Err   error
	Reply Reply
}

// Command represents a pending request waiting for reply.
type Command struct {
	requestSeq Seq
	resultCh   chan Result
	next       *Command
}

// RequestSeq returns the request frame seq.
func (c *Command) RequestSeq() Seq {
	return c.requestSeq
}

// ResultChan returns the chan to retrieve result.
func (c *Command) ResultChan() <-chan Result {
	return c.resultCh
}

// Client performs bus transactions through a remote adapter.
// It implements bus.Transport, Run must be running to receive replies.
type Client struct {
	ReadWriter   io.ReadWriter
	Timeout      time.Duration
	FrameTimeout time.Duration

	seq      Seq
	cmdsHead *Command
	cmdsTail *Command
	cmdsLock sync.Mutex
}

// NewClient creates a client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{
		ReadWriter:   rw,
		Timeout:      DefaultTimeout,
		FrameTimeout: DefaultFrameTimeout,
		seq:          NewSeq(),
	}
}

// Do sends a request and returns a Command for result.
func (c *Client) Do(req Request) *Command {
	cmd := &Command{resultCh: make(chan Result, 1)}

	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	cmd.requestSeq = c.seq
	f, err := req.Frame(c.seq)
	if err == nil {
		_, err = f.WriteTo(c.ReadWriter)
	}
	if err != nil {
		cmd.resultCh <- Result{Err: err}
		return cmd
	}
	c.seq = c.seq.Next()
	if c.cmdsHead == nil {
		c.cmdsHead = cmd
	} else {
		c.cmdsTail.next = cmd
	}
	c.cmdsTail = cmd
	return cmd
}

// Transact implements bus.Transport. Missing replies and link errors are
// reported as StatusTimeout.
func (c *Client) Transact(addr bus.Address, w []byte, n int) ([]byte, bus.Status) {
	out := make([]byte, n)
	cmd := c.Do(Request{Addr: addr, W: w, N: n})
	select {
	case r := <-cmd.ResultChan():
		if r.Err != nil {
			glog.Warningf("bridge: transaction 0x%02x: %v", byte(addr), r.Err)
			return out, bus.StatusTimeout
		}
		copy(out, r.Reply.Data)
		return out, r.Reply.Status
	case <-time.After(c.Timeout):
		c.forget(cmd)
		glog.Warningf("bridge: transaction 0x%02x seq %d: no reply in %s", byte(addr), cmd.requestSeq, c.Timeout)
		return out, bus.StatusTimeout
	}
}

func (c *Client) forget(cmd *Command) {
	c.cmdsLock.Lock()
	defer c.cmdsLock.Unlock()
	var prev *Command
	for curr := c.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != cmd {
			continue
		}
		if prev == nil {
			c.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.cmdsTail == curr {
			c.cmdsTail = prev
		}
		curr.next = nil
		return
	}
}

// HandleFrame dispatches a reply to its pending request.
func (c *Client) HandleFrame(f *Frame) error {
	if f.Code != CodeReply {
		glog.V(2).Infof("bridge: ignored frame code 0x%02x", f.Code)
		return nil
	}
	reply, err := ParseReply(f)
	if err != nil {
		glog.Warningf("bridge: reply seq %d: %v", f.Seq, err)
		return nil
	}
	c.cmdsLock.Lock()
	head := c.cmdsHead
	curr := c.cmdsHead
	for ; curr != nil; curr = curr.next {
		if curr.requestSeq == f.Seq {
			if c.cmdsHead = curr.next; c.cmdsHead == nil {
				c.cmdsTail = nil
			}
			curr.next = nil
			break
		}
	}
	c.cmdsLock.Unlock()
	if curr == nil {
		return nil
	}
	for head != curr {
		next := head.next
		head.next = nil
		head.resultCh <- Result{Err: ErrNoReply}
		head = next
	}
	curr.resultCh <- Result{Reply: reply}
	return nil
}

// Run receives replies until ctx is done or the stream fails.
func (c *Client) Run(ctx context.Context) error {
	l := &link{r: c.ReadWriter, frameTimeout: c.FrameTimeout, handle: c.HandleFrame}
	return l.run(ctx)
}
