// Package stream frames packets on a byte stream, each packet prefixed by
// its 4-byte little-endian length.
package stream

import (
	"encoding/binary"
	"io"
)

// ReadWriter implements report.PacketReader and report.PacketWriter.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter over s.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// Writer creates a write-only framer, reads fail with io.EOF.
func Writer(w io.Writer) *ReadWriter {
	return &ReadWriter{writeOnly{w}}
}

type writeOnly struct {
	io.Writer
}

func (writeOnly) Read([]byte) (int, error) {
	return 0, io.EOF
}

// ReadPacket implements report.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements report.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if err := binary.Write(p, binary.LittleEndian, uint32(len(pkt))); err != nil {
		return err
	}
	_, err := p.Write(pkt)
	return err
}

// Close closes the underlying stream if it is an io.Closer.
func (p *ReadWriter) Close() error {
	if c, ok := p.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	if w, ok := p.ReadWriter.(writeOnly); ok {
		if c, ok := w.Writer.(io.Closer); ok {
			return c.Close()
		}
	}
	return nil
}
