// Package report delivers verified impact records to their consumers.
package report

import (
	"fmt"
	"io"

	fx "github.com/robotalks/impactlog/pkg/framework"
	"github.com/robotalks/impactlog/pkg/impact"
)

// Header introduces the records of one episode.
type Header struct {
	Episode     string
	Device      string
	TriggeredAt impact.Timestamp
	Records     int
}

// Summary closes the records of one episode.
type Summary struct {
	Episode    string
	Matched    int
	Mismatched int
	Unstored   int
}

// Sink receives the verified records of an episode.
// Emit is only called for records whose read-back matched in every field.
type Sink interface {
	Begin(Header) error
	Emit(index int, s impact.Sample) error
	End(Summary) error
}

// FormatRecord renders one record as a single line without newline.
func FormatRecord(index int, s impact.Sample) string {
	hg := s.HighG.Scaled(impact.HighGMilliGPerLSB)
	return fmt.Sprintf("ID=%d high-g=[%d %d %d]mg low-g=%smg gyro=%smrad/s time=%s",
		index, hg[0], hg[1], hg[2], s.LowG, s.Gyro, s.Time)
}

// Text writes human readable lines.
type Text struct {
	W io.Writer
}

// NewText creates a Text sink.
func NewText(w io.Writer) *Text {
	return &Text{W: w}
}

// Begin implements Sink.
func (t *Text) Begin(h Header) error {
	_, err := fmt.Fprintf(t.W, "===== IMPACT DATA OUTPUT episode=%s records=%d triggered=%s =====\n",
		h.Episode, h.Records, h.TriggeredAt)
	return err
}

// Emit implements Sink.
func (t *Text) Emit(index int, s impact.Sample) error {
	_, err := fmt.Fprintln(t.W, FormatRecord(index, s))
	return err
}

// End implements Sink.
func (t *Text) End(s Summary) error {
	_, err := fmt.Fprintf(t.W, "===== DATA OUTPUT FINISH matched=%d mismatched=%d unstored=%d =====\n",
		s.Matched, s.Mismatched, s.Unstored)
	return err
}

// Multi fans out to every Sink, a failing Sink does not stop the others.
type Multi []Sink

// Begin implements Sink.
func (m Multi) Begin(h Header) error {
	var errs fx.AggregatedError
	for _, s := range m {
		errs.Add(s.Begin(h))
	}
	return errs.Aggregate()
}

// Emit implements Sink.
func (m Multi) Emit(index int, smp impact.Sample) error {
	var errs fx.AggregatedError
	for _, s := range m {
		errs.Add(s.Emit(index, smp))
	}
	return errs.Aggregate()
}

// End implements Sink.
func (m Multi) End(sum Summary) error {
	var errs fx.AggregatedError
	for _, s := range m {
		errs.Add(s.End(sum))
	}
	return errs.Aggregate()
}

// Close closes every Sink implementing io.Closer.
func (m Multi) Close() error {
	var errs fx.AggregatedError
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			errs.Add(c.Close())
		}
	}
	return errs.Aggregate()
}
