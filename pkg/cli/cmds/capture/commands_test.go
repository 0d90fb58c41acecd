package capture

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/impactlog/pkg/capture"
	"github.com/robotalks/impactlog/pkg/impact"
)

func TestFormatStats(t *testing.T) {
	require.Equal(t, "no episode", FormatStats(nil))
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	s := &capture.Stats{
		ID:         id,
		Trigger:    impact.Axes{350, -175, 10},
		Window:     500 * time.Millisecond,
		Acquired:   250,
		Dropped:    150,
		Stored:     100,
		Matched:    99,
		Mismatched: 1,
	}
	require.Equal(t,
		"episode 6ba7b810-9dad-11d1-80b4-00c04fd430c8 trigger [350 -175 10] window 500ms acquired 250 dropped 150 stored 100 unstored 0 matched 99 mismatched 1",
		FormatStats(s))
}
