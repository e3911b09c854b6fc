package codec

import "encoding/binary"

// Serialize renders m in the little-endian framed format:
// type(1) + len_or_count(4) + payload.
func Serialize(m *Message) []byte {
	buf := make([]byte, 0, SerializedSize(m))
	return appendMessage(buf, m)
}

func appendMessage(buf []byte, m *Message) []byte {
	if m == nil {
		m = NewNull()
	}
	switch m.Kind {
	case KindSimpleString, KindError, KindBulkString:
		buf = append(buf, byte(m.Kind))
		buf = appendUint32(buf, uint32(len(m.Str)))
		buf = append(buf, m.Str...)
	case KindInteger:
		buf = append(buf, byte(m.Kind))
		buf = appendUint32(buf, 8)
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(m.Int))
		buf = append(buf, b[:]...)
	case KindArray:
		buf = append(buf, byte(m.Kind))
		buf = appendUint32(buf, uint32(len(m.Arr)))
		for _, elem := range m.Arr {
			buf = appendMessage(buf, elem)
		}
	case KindNull:
		buf = append(buf, byte(m.Kind))
		buf = appendUint32(buf, 0)
	default:
		buf = append(buf, byte(KindNull))
		buf = appendUint32(buf, 0)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// SerializedSize returns the exact byte length Serialize would produce for
// m, without allocating the bytes themselves.
func SerializedSize(m *Message) int {
	if m == nil {
		return 5
	}
	switch m.Kind {
	case KindSimpleString, KindError, KindBulkString:
		return 5 + len(m.Str)
	case KindInteger:
		return 5 + 8
	case KindArray:
		size := 5
		for _, elem := range m.Arr {
			size += SerializedSize(elem)
		}
		return size
	case KindNull:
		return 5
	default:
		return 5
	}
}
