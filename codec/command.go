package codec

// MakeCommand builds the Array-of-BulkString representation of a command
// line, ready to be serialized and sent over the wire.
func MakeCommand(args [][]byte) *Message {
	elems := make([]*Message, 0, len(args))
	for _, a := range args {
		elems = append(elems, NewBulkString(a))
	}
	return NewArray(elems)
}

// ParseCommand extracts the argument list from m if it is an Array of
// BulkString; ok is false otherwise.
func ParseCommand(m *Message) (args [][]byte, ok bool) {
	if !m.IsArrayOfBulkStrings() {
		return nil, false
	}
	out := make([][]byte, len(m.Arr))
	for i, e := range m.Arr {
		out[i] = e.Str
	}
	return out, true
}
