// Package codec implements the framed binary wire protocol: the tagged
// Message type, its streaming parser, and its serializer.
package codec

// Kind tags the variant a Message carries, matching the wire type codes.
type Kind byte

const (
	KindSimpleString Kind = 0x01
	KindError        Kind = 0x02
	KindInteger      Kind = 0x03
	KindBulkString   Kind = 0x04
	KindArray        Kind = 0x05
	KindNull         Kind = 0x06
)

// Message is a tagged value: exactly one of Str/Int/Arr is meaningful,
// selected by Kind. Bytes are opaque and binary-safe.
type Message struct {
	Kind Kind
	Str  []byte
	Int  int64
	Arr  []*Message
}

func NewSimpleString(s []byte) *Message { return &Message{Kind: KindSimpleString, Str: s} }
func NewError(s []byte) *Message        { return &Message{Kind: KindError, Str: s} }
func NewErrorString(s string) *Message  { return &Message{Kind: KindError, Str: []byte(s)} }
func NewInteger(v int64) *Message       { return &Message{Kind: KindInteger, Int: v} }
func NewBulkString(s []byte) *Message   { return &Message{Kind: KindBulkString, Str: s} }
func NewArray(elems []*Message) *Message {
	if elems == nil {
		elems = []*Message{}
	}
	return &Message{Kind: KindArray, Arr: elems}
}
func NewNull() *Message { return &Message{Kind: KindNull} }

// IsArrayOfBulkStrings reports whether m is an Array whose elements are all
// BulkString messages.
func (m *Message) IsArrayOfBulkStrings() bool {
	if m == nil || m.Kind != KindArray {
		return false
	}
	for _, e := range m.Arr {
		if e == nil || e.Kind != KindBulkString {
			return false
		}
	}
	return true
}

// Equal performs a deep, kind-aware comparison. Used by round-trip tests.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Kind != other.Kind {
		return false
	}
	switch m.Kind {
	case KindSimpleString, KindError, KindBulkString:
		return string(m.Str) == string(other.Str)
	case KindInteger:
		return m.Int == other.Int
	case KindNull:
		return true
	case KindArray:
		if len(m.Arr) != len(other.Arr) {
			return false
		}
		for i := range m.Arr {
			if !m.Arr[i].Equal(other.Arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
