package impact

import (
	"encoding/binary"
	"errors"
)

// RecordSize is the size of an encoded Sample.
const RecordSize = 26

// ErrShortRecord indicates too few bytes to decode a record.
var ErrShortRecord = errors.New("short record")

// MarshalTo encodes s into the first RecordSize bytes of b.
// Layout: high-g, low-g, gyro as little-endian int16 X/Y/Z, followed by
// the eight timestamp bytes from year to hundredth.
func (s *Sample) MarshalTo(b []byte) error {
	if len(b) < RecordSize {
		return ErrShortRecord
	}
	off := 0
	for _, a := range []*Axes{&s.HighG, &s.LowG, &s.Gyro} {
		for _, v := range a {
			binary.LittleEndian.PutUint16(b[off:], uint16(v))
			off += 2
		}
	}
	t := &s.Time
	copy(b[off:], []byte{t.Year, t.Month, t.Date, t.Weekday, t.Hour, t.Minute, t.Second, t.Hundredth})
	return nil
}

// Encode returns the record image of s.
func (s Sample) Encode() []byte {
	b := make([]byte, RecordSize)
	s.MarshalTo(b)
	return b
}

// Decode parses a record image.
func Decode(b []byte) (s Sample, err error) {
	if len(b) < RecordSize {
		return s, ErrShortRecord
	}
	off := 0
	for _, a := range []*Axes{&s.HighG, &s.LowG, &s.Gyro} {
		for i := range a {
			a[i] = int16(binary.LittleEndian.Uint16(b[off:]))
			off += 2
		}
	}
	t := b[off:]
	s.Time = Timestamp{
		Year:      t[0],
		Month:     t[1],
		Date:      t[2],
		Weekday:   t[3],
		Hour:      t[4],
		Minute:    t[5],
		Second:    t[6],
		Hundredth: t[7],
	}
	return s, nil
}
