package report

import (
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/impactlog/pkg/impact"
)

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// Packet kinds.
const (
	KindBegin  = "begin"
	KindRecord = "record"
	KindEnd    = "end"
)

// Packets encodes every call as a protobuf Struct and writes it.
type Packets struct {
	Writer PacketWriter
	Device string

	episode string
}

// NewPackets creates a Packets sink.
func NewPackets(w PacketWriter, device string) *Packets {
	return &Packets{Writer: w, Device: device}
}

func (p *Packets) write(kind string, fields map[string]*structpb.Value) error {
	fields["kind"] = stringValue(kind)
	fields["episode"] = stringValue(p.episode)
	fields["device"] = stringValue(p.Device)
	pkt, err := proto.Marshal(&structpb.Struct{Fields: fields})
	if err != nil {
		return err
	}
	return p.Writer.WritePacket(pkt)
}

// Begin implements Sink.
func (p *Packets) Begin(h Header) error {
	p.episode = h.Episode
	return p.write(KindBegin, map[string]*structpb.Value{
		"records":   numberValue(float64(h.Records)),
		"triggered": timeValue(h.TriggeredAt),
	})
}

// Emit implements Sink.
func (p *Packets) Emit(index int, s impact.Sample) error {
	hg := s.HighG.Scaled(impact.HighGMilliGPerLSB)
	return p.write(KindRecord, map[string]*structpb.Value{
		"index":   numberValue(float64(index)),
		"high_g":  listValue(float64(hg[0]), float64(hg[1]), float64(hg[2])),
		"low_g":   axesValue(s.LowG),
		"gyro":    axesValue(s.Gyro),
		"time":    timeValue(s.Time),
		"weekday": numberValue(float64(s.Time.Weekday)),
	})
}

// End implements Sink.
func (p *Packets) End(s Summary) error {
	return p.write(KindEnd, map[string]*structpb.Value{
		"matched":    numberValue(float64(s.Matched)),
		"mismatched": numberValue(float64(s.Mismatched)),
		"unstored":   numberValue(float64(s.Unstored)),
	})
}

// Close closes the writer if it is an io.Closer.
func (p *Packets) Close() error {
	if c, ok := p.Writer.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// DecodePacket parses a packet written by Packets.
func DecodePacket(pkt []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(pkt, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func listValue(vals ...float64) *structpb.Value {
	l := &structpb.ListValue{Values: make([]*structpb.Value, len(vals))}
	for n, v := range vals {
		l.Values[n] = numberValue(v)
	}
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: l}}
}

func axesValue(a impact.Axes) *structpb.Value {
	return listValue(float64(a[0]), float64(a[1]), float64(a[2]))
}

func timeValue(t impact.Timestamp) *structpb.Value {
	ts, err := ptypes.TimestampProto(t.Time())
	if err != nil {
		return stringValue(t.String())
	}
	return stringValue(ptypes.TimestampString(ts))
}
