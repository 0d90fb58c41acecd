package bridge_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/board"
	"github.com/robotalks/impactlog/pkg/capture"
	"github.com/robotalks/impactlog/pkg/flash"
	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/l0/bridge"
	"github.com/robotalks/impactlog/pkg/l0/bus"
	"github.com/robotalks/impactlog/pkg/report"
	"github.com/robotalks/impactlog/pkg/sim"
)

type pipeReadWriter struct {
	io.Reader
	io.Writer
}

type bridgeTestEnv struct {
	bench  *sim.Bench
	client *bridge.Client
	server *bridge.Server
}

func newBridgeTestEnv(t *testing.T) *bridgeTestEnv {
	up, upW := io.Pipe()
	down, downW := io.Pipe()
	env := &bridgeTestEnv{bench: sim.NewBench(sim.DefaultLatencies)}
	env.client = bridge.NewClient(&pipeReadWriter{Reader: down, Writer: upW})
	env.server = bridge.NewServer(&pipeReadWriter{Reader: up, Writer: downW}, env.bench.Transport(0))
	ctx, cancel := context.WithCancel(context.Background())
	go env.server.Run(ctx)
	go env.client.Run(ctx)
	t.Cleanup(func() {
		cancel()
		upW.Close()
		downW.Close()
	})
	return env
}

func TestBridgeTransact(t *testing.T) {
	env := newBridgeTestEnv(t)
	r, st := env.client.Transact(board.FlashCS, []byte{flash.OpReadID}, 3)
	require.Equal(t, bus.StatusOK, st)
	require.Equal(t, flash.Identity, r)

	r, st = env.client.Transact(0x11, []byte{0}, 2)
	require.Equal(t, bus.StatusAddressNACK, st)
	require.Equal(t, []byte{0, 0}, r)
	require.Equal(t, 2, env.server.Served())
}

func TestBridgeFlash(t *testing.T) {
	env := newBridgeTestEnv(t)
	dev := flash.New(env.client, board.FlashCS, flash.NewLayout(flash.SegmentLow, 0))
	require.Equal(t, dev.Expected(), dev.Identify())
	require.NoError(t, dev.Configure())
	require.NoError(t, dev.EraseRegion(0))
	require.NoError(t, dev.PollReady())
	rec := make([]byte, 40)
	for i := range rec {
		rec[i] = byte(i)
	}
	require.NoError(t, dev.Program(0xf0, rec))
	back, err := dev.ReadAt(0xf0, len(rec))
	require.NoError(t, err)
	require.Equal(t, rec, back)
	require.Equal(t, rec, env.bench.Flash.Peek(0xf0, len(rec)))
	require.Zero(t, dev.Failures())
}

func TestBridgeCapture(t *testing.T) {
	env := newBridgeTestEnv(t)
	env.bench.Approach(0, 12)
	env.bench.Impact(600*time.Millisecond, 350)
	layout := flash.NewLayout(flash.SegmentLow, 0)
	b := board.New(env.client, board.Options{Layout: layout})
	conf := capture.DefaultConfig()
	conf.Capacity = 50
	conf.ImpactPolls = 10
	var count int
	m := capture.New(conf, b.Devices(), env.bench.Clock, &countingSink{n: &count})
	require.NoError(t, m.Run(context.Background()))
	require.Equal(t, capture.StateDone, m.State())
	require.Equal(t, 50, count)
	require.Equal(t, 50, m.Stats().Matched)
}

type countingSink struct {
	n *int
}

func (s *countingSink) Begin(h report.Header) error { return nil }

func (s *countingSink) Emit(index int, smp impact.Sample) error {
	*s.n++
	return nil
}

func (s *countingSink) End(sum report.Summary) error { return nil }
