package bridge

import (
	"io"
	"time"

	"github.com/robotalks/impactlog/pkg/l0/bus"
)

// Frame markers and codes.
const (
	StartByte    byte = 0xa5
	CodeTransact byte = 0x01
	CodeReply    byte = 0x81

	// MaxPayload is the largest payload of a frame.
	MaxPayload = 0xff
	// MaxWrite and MaxRead bound the bytes of one transaction.
	MaxWrite = MaxPayload - 2
	MaxRead  = MaxPayload - 1
)

// Seq is the sequence number of a request.
type Seq byte

// NewSeq creates a random sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame is a decoded frame.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

func checksum(b []byte) (sum byte) {
	for _, v := range b {
		sum += v
	}
	return
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, len(f.Data)+5)
	b = append(b, StartByte, byte(f.Seq), f.Code, byte(len(f.Data)))
	b = append(b, f.Data...)
	return append(b, checksum(b[1:]))
}

// WriteTo writes the encoded frame in one Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// Request is one bus transaction.
type Request struct {
	Addr bus.Address
	W    []byte
	N    int
}

// Frame encodes r.
func (r Request) Frame(seq Seq) (*Frame, error) {
	if len(r.W) > MaxWrite || r.N > MaxRead || r.N < 0 {
		return nil, &SizeError{Write: len(r.W), Read: r.N}
	}
	data := make([]byte, 0, len(r.W)+2)
	data = append(data, byte(r.Addr), byte(r.N))
	data = append(data, r.W...)
	return &Frame{Seq: seq, Code: CodeTransact, Data: data}, nil
}

// ParseRequest decodes a request frame.
func ParseRequest(f *Frame) (Request, error) {
	if len(f.Data) < 2 {
		return Request{}, ErrShortFrame
	}
	return Request{Addr: bus.Address(f.Data[0]), N: int(f.Data[1]), W: f.Data[2:]}, nil
}

// Reply is the outcome of a transaction.
type Reply struct {
	Status bus.Status
	Data   []byte
}

// Frame encodes r as the reply to seq.
func (r Reply) Frame(seq Seq) *Frame {
	data := make([]byte, 0, len(r.Data)+1)
	data = append(data, byte(r.Status))
	data = append(data, r.Data...)
	return &Frame{Seq: seq, Code: CodeReply, Data: data}
}

// ParseReply decodes a reply frame.
func ParseReply(f *Frame) (Reply, error) {
	if len(f.Data) < 1 {
		return Reply{}, ErrShortFrame
	}
	return Reply{Status: bus.Status(f.Data[0]), Data: f.Data[1:]}, nil
}
