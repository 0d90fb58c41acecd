package bridge

// Parser parses bytes received.
type Parser struct {
	state   parseState
	frame   *Frame
	recvLen int
	sum     byte
	dropped int
}

type parseState int

const (
	stateStart parseState = iota // waiting for StartByte
	stateSeq                     // waiting for seq
	stateCode                    // waiting for code
	stateLen                     // waiting for payload length
	stateData                    // waiting for payload
	stateSum                     // waiting for checksum
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Frame *Frame
	// Receiving is true in the middle of a frame.
	Receiving bool
	// Dropped is true when a partial frame was discarded.
	Dropped bool
}

// Receiving reports whether a frame is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateStart
}

// Dropped returns the number of frames discarded so far.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Dropped = p.parseByte(b)
	pr.Receiving = p.Receiving()
	return
}

// Timeout discards a partially received frame.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.Receiving() {
		pr.Dropped = p.drop()
	}
	return
}

func (p *Parser) parseByte(b byte) (*Frame, bool) {
	switch p.state {
	case stateStart:
		if b == StartByte {
			p.state = stateSeq
		}
	case stateSeq:
		if !Seq(b).IsValid() {
			return nil, p.drop()
		}
		p.frame, p.sum = &Frame{Seq: Seq(b)}, b
		p.state = stateCode
	case stateCode:
		p.frame.Code = b
		p.sum += b
		p.state = stateLen
	case stateLen:
		p.sum += b
		if b == 0 {
			p.state = stateSum
			break
		}
		p.frame.Data, p.recvLen = make([]byte, b), 0
		p.state = stateData
	case stateData:
		p.frame.Data[p.recvLen] = b
		p.recvLen++
		p.sum += b
		if p.recvLen >= len(p.frame.Data) {
			p.state = stateSum
		}
	case stateSum:
		if b != p.sum {
			return nil, p.drop()
		}
		f := p.frame
		p.frame, p.state = nil, stateStart
		return f, false
	}
	return nil, false
}

func (p *Parser) drop() bool {
	p.dropped++
	p.frame, p.state = nil, stateStart
	return true
}
