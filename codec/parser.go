package codec

import "encoding/binary"

// Parser is a streaming state machine over a byte queue. Feed appends raw
// socket bytes; TryParse returns one fully-buffered Message at a time,
// leaving any unconsumed suffix untouched. Once poisoned by malformed
// input, a Parser refuses to parse anything further.
type Parser struct {
	buf      []byte
	poisoned bool
}

func NewParser() *Parser {
	return &Parser{buf: make([]byte, 0, 4096)}
}

// Feed appends data to the internal buffer.
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
}

// Buffered reports how many unparsed bytes are currently queued, used by
// the connection state machine to enforce the read-buffer cap.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

func (p *Parser) Poisoned() bool {
	return p.poisoned
}

// TryParse returns (msg, nil) when a complete message was consumed,
// (nil, nil) when the buffer holds only a partial frame, and (nil, err)
// when the frame is malformed — at which point the parser is poisoned and
// every subsequent call returns the same error without touching buf.
func (p *Parser) TryParse() (*Message, error) {
	if p.poisoned {
		return nil, ErrPoisoned
	}

	size, ok, err := messageSize(p.buf, 0)
	if err != nil {
		p.poisoned = true
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	msg, _ := decodeMessage(p.buf, 0)
	p.buf = p.buf[size:]
	return msg, nil
}

// messageSize reports the total encoded length of the message starting at
// off, without consuming anything. ok is false when buf doesn't yet hold a
// complete frame at off; err is non-nil when the frame is malformed.
func messageSize(buf []byte, off int) (size int, ok bool, err error) {
	if len(buf)-off < 5 {
		return 0, false, nil
	}

	typ := Kind(buf[off])
	length := binary.LittleEndian.Uint32(buf[off+1 : off+5])

	switch typ {
	case KindSimpleString, KindError, KindBulkString:
		if length > MaxMessageLen {
			return 0, false, ErrFrameTooLarge
		}
		total := 5 + int(length)
		if len(buf)-off < total {
			return 0, false, nil
		}
		return total, true, nil

	case KindInteger:
		if length != 8 {
			return 0, false, ErrMalformedFrame
		}
		total := 5 + 8
		if len(buf)-off < total {
			return 0, false, nil
		}
		return total, true, nil

	case KindNull:
		if length != 0 {
			return 0, false, ErrMalformedFrame
		}
		return 5, true, nil

	case KindArray:
		if length > MaxArrayElements {
			return 0, false, ErrFrameTooLarge
		}
		total := 5
		pos := off + 5
		for i := uint32(0); i < length; i++ {
			elemSize, elemOK, elemErr := messageSize(buf, pos)
			if elemErr != nil {
				return 0, false, elemErr
			}
			if !elemOK {
				return 0, false, nil
			}
			total += elemSize
			pos += elemSize
		}
		return total, true, nil

	default:
		return 0, false, ErrUnknownType
	}
}

// decodeMessage assumes messageSize already validated that a complete
// frame starting at off is present in buf; it never returns an error.
func decodeMessage(buf []byte, off int) (*Message, int) {
	typ := Kind(buf[off])
	length := binary.LittleEndian.Uint32(buf[off+1 : off+5])

	switch typ {
	case KindSimpleString:
		str := buf[off+5 : off+5+int(length)]
		return NewSimpleString(cloneBytes(str)), 5 + int(length)
	case KindError:
		str := buf[off+5 : off+5+int(length)]
		return NewError(cloneBytes(str)), 5 + int(length)
	case KindBulkString:
		str := buf[off+5 : off+5+int(length)]
		return NewBulkString(cloneBytes(str)), 5 + int(length)
	case KindInteger:
		v := int64(binary.LittleEndian.Uint64(buf[off+5 : off+5+8]))
		return NewInteger(v), 5 + 8
	case KindNull:
		return NewNull(), 5
	case KindArray:
		elems := make([]*Message, 0, length)
		pos := off + 5
		for i := uint32(0); i < length; i++ {
			elem, n := decodeMessage(buf, pos)
			elems = append(elems, elem)
			pos += n
		}
		return NewArray(elems), pos - off
	default:
		return NewNull(), 5
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
