package capture

import (
	"time"

	"github.com/google/uuid"

	"github.com/robotalks/impactlog/pkg/impact"
	"github.com/robotalks/impactlog/pkg/report"
)

// Stats are the counters of an episode.
type Stats struct {
	ID          uuid.UUID
	TriggeredAt impact.Timestamp
	Trigger     impact.Axes
	Window      time.Duration
	// Acquired counts acquisitions, including dropped ones.
	Acquired    int
	Dropped     int
	Stored      int
	Matched     int
	Mismatched  int
	Unstored    int
}

// Summary returns the reporting summary.
func (s Stats) Summary() report.Summary {
	return report.Summary{
		Episode:    s.ID.String(),
		Matched:    s.Matched,
		Mismatched: s.Mismatched,
		Unstored:   s.Unstored,
	}
}

// Episode is the state of one capture, from trigger to report.
type Episode struct {
	Stats

	Samples  *impact.Buffer
	ReadBack *impact.Buffer
}
