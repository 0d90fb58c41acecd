package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

type chanReadWriter struct {
	readCh  <-chan byte
	writeCh chan byte
}

func (c *chanReadWriter) Read(p []byte) (int, error) {
	p[0] = <-c.readCh
	return 1, nil
}

func (c *chanReadWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		c.writeCh <- b
	}
	return len(p), nil
}

type clientTestEnv struct {
	t        *testing.T
	readCh   chan byte
	writeCh  chan byte
	client   *Client
	commands []*Command
}

func newClientTestEnv(t *testing.T) *clientTestEnv {
	env := &clientTestEnv{
		t:       t,
		readCh:  make(chan byte, 1),
		writeCh: make(chan byte, 1),
	}
	env.client = NewClient(&chanReadWriter{readCh: env.readCh, writeCh: env.writeCh})
	env.client.seq = Seq(1)
	return env
}

func (e *clientTestEnv) wrapFn(name string, fn func(string)) {
	e.t.Logf("START %s", name)
	fn(name)
	e.t.Logf("STOP %s", name)
}

func (e *clientTestEnv) run(fns ...func(string)) {
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()
	go e.client.Run(ctx)
	for n, fn := range fns {
		e.wrapFn(fmt.Sprintf("step-%d", n), fn)
	}
}

func (e *clientTestEnv) sequential(fns ...func(string)) func(string) {
	return func(name string) {
		for n, fn := range fns {
			e.wrapFn(name+fmt.Sprintf(".%d", n), fn)
		}
	}
}

func (e *clientTestEnv) parallel(fns ...func(string)) func(string) {
	return func(name string) {
		var wg sync.WaitGroup
		for n, fn := range fns {
			wg.Add(1)
			go func(name string, fn func(string)) {
				defer wg.Done()
				e.wrapFn(name, fn)
			}(name+fmt.Sprintf(".%d", n), fn)
		}
		wg.Wait()
	}
}

func (e *clientTestEnv) expect(bs ...byte) func(string) {
	return func(name string) {
		for i, b := range bs {
			require.Equalf(e.t, b, <-e.writeCh, "%s.byte[%d] mismatch", name, i)
		}
	}
}

func (e *clientTestEnv) inject(bs ...byte) func(string) {
	return func(name string) {
		for _, b := range bs {
			e.readCh <- b
		}
	}
}

func (e *clientTestEnv) transact(addr bus.Address, w []byte, n int, status bus.Status, data ...byte) func(string) {
	return func(name string) {
		r, st := e.client.Transact(addr, w, n)
		require.Equalf(e.t, status, st, "%s status mismatch", name)
		if data == nil {
			data = make([]byte, n)
		}
		require.Equalf(e.t, data, r, "%s data mismatch", name)
	}
}

func (e *clientTestEnv) clientDo(addr bus.Address, w []byte, n int) func(string) {
	return func(name string) {
		e.commands = append(e.commands, e.client.Do(Request{Addr: addr, W: w, N: n}))
	}
}

func (e *clientTestEnv) nextResult(name string) (r Result) {
	require.NotEmptyf(e.t, e.commands, "%s commands empty", name)
	cmd := e.commands[0]
	e.commands = e.commands[1:]
	select {
	case r = <-cmd.ResultChan():
	case <-time.After(500 * time.Millisecond):
		e.t.Fatalf("%s: timeout", name)
	}
	return
}

func (e *clientTestEnv) clientResult(status bus.Status) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.NoErrorf(e.t, r.Err, "%s unexpected err", name)
		require.Equalf(e.t, status, r.Reply.Status, "%s status mismatch", name)
	}
}

func (e *clientTestEnv) clientResultErr(err error) func(string) {
	return func(name string) {
		r := e.nextResult(name)
		require.Equalf(e.t, err, r.Err, "%s mismatch", name)
	}
}

func TestClient(t *testing.T) {
	testCases := []struct {
		name  string
		logic func(*clientTestEnv)
	}{
		{
			"transact",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.transact(0x1b, []byte{0x9e}, 3, bus.StatusOK, 0x20, 0xba, 0x19),
						env.sequential(
							env.expect(0xa5, 1, 0x01, 3, 0x1b, 3, 0x9e, 0xc1),
							env.inject(0xa5, 1, 0x81, 4, 0, 0x20, 0xba, 0x19, 0x79),
						),
					),
				)
			},
		},
		{
			"status",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.transact(0x1b, nil, 0, bus.StatusDataNACK),
						env.sequential(
							env.expect(0xa5, 1, 0x01, 2, 0x1b, 0, 0x1f),
							env.inject(0xa5, 1, 0x81, 1, 2, 0x85),
						),
					),
				)
			},
		},
		{
			"no reply",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.sequential(
							env.clientDo(0x1b, nil, 0),
							env.clientDo(0x1b, nil, 0),
						),
						env.expect(
							0xa5, 1, 0x01, 2, 0x1b, 0, 0x1f,
							0xa5, 2, 0x01, 2, 0x1b, 0, 0x20,
						),
					),
					env.inject(0xa5, 2, 0x81, 1, 0, 0x84),
					env.clientResultErr(ErrNoReply),
					env.clientResult(bus.StatusOK),
				)
			},
		},
		{
			"timeout",
			func(env *clientTestEnv) {
				env.client.Timeout = 20 * time.Millisecond
				env.run(
					env.parallel(
						env.transact(0x1b, nil, 0, bus.StatusTimeout),
						env.expect(0xa5, 1, 0x01, 2, 0x1b, 0, 0x1f),
					),
					env.inject(0xa5, 1, 0x81, 1, 0, 0x83),
					env.parallel(
						env.transact(0x1b, nil, 0, bus.StatusOK),
						env.sequential(
							env.expect(0xa5, 2, 0x01, 2, 0x1b, 0, 0x20),
							env.inject(0xa5, 2, 0x81, 1, 0, 0x84),
						),
					),
				)
			},
		},
		{
			"corrupted reply",
			func(env *clientTestEnv) {
				env.run(
					env.parallel(
						env.transact(0x1b, []byte{0x9e}, 3, bus.StatusOK, 0x20, 0xba, 0x19),
						env.sequential(
							env.expect(0xa5, 1, 0x01, 3, 0x1b, 3, 0x9e, 0xc1),
							env.inject(0xa5, 1, 0x81, 4, 0, 0x20, 0xba, 0x19, 0),
							env.inject(0xa5, 1, 0x81, 4, 0, 0x20, 0xba, 0x19, 0x79),
						),
					),
				)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.logic(newClientTestEnv(t))
		})
	}
}

func TestClientRejectsOversizedTransaction(t *testing.T) {
	c := NewClient(&chanReadWriter{})
	r, st := c.Transact(1, nil, MaxRead+1)
	require.Equal(t, bus.StatusTimeout, st)
	require.Len(t, r, MaxRead+1)
}
