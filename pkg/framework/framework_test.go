package framework

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	err := errs.Add(errors.New("a"), nil, errors.New("b")).Aggregate()
	require.EqualError(t, err, "Multiple errors:\na\nb")

	errs = AggregatedError{}
	err = errs.Add(errors.New("a"), fmt.Errorf("run: %w", context.DeadlineExceeded)).Aggregate()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, errors.Is(err, context.Canceled))
}

func TestRunnerWait(t *testing.T) {
	r := NewRunner()
	started := make(chan struct{})
	r.Go(
		NamedRun("fails", RunFunc(func(context.Context) error {
			return errors.New("boom")
		})),
		NamedRun("blocks", RunFunc(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})),
	)
	<-started
	r.Stop()
	err := r.Wait()
	require.Error(t, err)
	require.Len(t, err.(*AggregatedError).Errors, 1)
	require.EqualError(t, err.(*AggregatedError).Errors[0], "fails: boom")
}

func TestRunnerMainStopsServices(t *testing.T) {
	errDone := errors.New("halted")
	r := NewRunner().Go(NamedRun("bridge", RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})))
	r.Main(NamedRun("capture", RunFunc(func(context.Context) error {
		return errDone
	})))
	err := r.Wait()
	require.ErrorIs(t, err, errDone)
	require.EqualError(t, err.(*AggregatedError).Errors[0], "capture: halted")
	require.Error(t, r.Context.Err())
}

func TestRunnerMainSucceeds(t *testing.T) {
	r := NewRunner().Main(RunFunc(func(context.Context) error { return nil }))
	require.NoError(t, r.Wait())
	require.ErrorIs(t, r.Context.Err(), context.Canceled)
}
