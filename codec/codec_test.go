package codec

import (
	"math/rand"
	"testing"
)

func sampleMessages() []*Message {
	return []*Message{
		NewSimpleString([]byte("OK")),
		NewError([]byte("ERR boom")),
		NewInteger(0),
		NewInteger(-42),
		NewInteger(1<<62 - 1),
		NewBulkString([]byte("")),
		NewBulkString([]byte("hello world")),
		NewNull(),
		NewArray(nil),
		NewArray([]*Message{NewBulkString([]byte("a")), NewBulkString([]byte("b"))}),
		NewArray([]*Message{
			NewBulkString([]byte("SET")),
			NewArray([]*Message{NewInteger(1), NewNull()}),
		}),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, m := range sampleMessages() {
		data := Serialize(m)
		if len(data) != SerializedSize(m) {
			t.Fatalf("serialized_size mismatch: got %d want %d for %+v", SerializedSize(m), len(data), m)
		}

		p := NewParser()
		p.Feed(data)
		got, err := p.TryParse()
		if err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if !got.Equal(m) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, m)
		}
		if p.Buffered() != 0 {
			t.Fatalf("expected buffer drained, got %d bytes left", p.Buffered())
		}
	}
}

func TestStreamingSplit(t *testing.T) {
	for _, m := range sampleMessages() {
		data := Serialize(m)
		for split := 0; split <= len(data); split++ {
			p := NewParser()
			p.Feed(data[:split])
			msg, err := p.TryParse()
			if err != nil {
				t.Fatalf("unexpected error at split %d: %v", split, err)
			}
			if split < len(data) {
				if msg != nil {
					t.Fatalf("expected no message at split %d before full frame", split)
				}
				p.Feed(data[split:])
				msg, err = p.TryParse()
				if err != nil {
					t.Fatalf("unexpected error after completing frame: %v", err)
				}
			}
			if !msg.Equal(m) {
				t.Fatalf("streaming split %d mismatch: got %+v want %+v", split, msg, m)
			}
		}
	}
}

func TestTryParseIdempotentOnPartialInput(t *testing.T) {
	data := Serialize(NewBulkString([]byte("partial frame contents")))
	p := NewParser()
	p.Feed(data[:len(data)-3])

	for i := 0; i < 3; i++ {
		msg, err := p.TryParse()
		if err != nil || msg != nil {
			t.Fatalf("expected no message on repeated partial TryParse, got msg=%v err=%v", msg, err)
		}
	}
}

func TestPipelinedMessages(t *testing.T) {
	msgs := sampleMessages()
	var stream []byte
	for _, m := range msgs {
		stream = append(stream, Serialize(m)...)
	}

	p := NewParser()
	p.Feed(stream)
	for i, want := range msgs {
		got, err := p.TryParse()
		if err != nil {
			t.Fatalf("message %d: unexpected error %v", i, err)
		}
		if !got.Equal(want) {
			t.Fatalf("message %d mismatch: got %+v want %+v", i, got, want)
		}
	}
	if msg, err := p.TryParse(); msg != nil || err != nil {
		t.Fatalf("expected empty buffer after draining pipeline, got msg=%v err=%v", msg, err)
	}
}

func TestUnknownTypePoisons(t *testing.T) {
	p := NewParser()
	p.Feed([]byte{0xFF, 0, 0, 0, 0})
	if _, err := p.TryParse(); err == nil {
		t.Fatal("expected error for unknown frame type")
	}
	if !p.Poisoned() {
		t.Fatal("expected parser to be poisoned")
	}
	if _, err := p.TryParse(); err != ErrPoisoned {
		t.Fatalf("expected ErrPoisoned on subsequent calls, got %v", err)
	}
}

func TestOversizedFrameIsRejected(t *testing.T) {
	p := NewParser()
	header := []byte{byte(KindBulkString), 0, 0, 0, 0}
	header[1] = 0xFF
	header[2] = 0xFF
	header[3] = 0xFF
	header[4] = 0xFF
	p.Feed(header)
	if _, err := p.TryParse(); err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestMakeParseCommand(t *testing.T) {
	args := [][]byte{[]byte("SET"), []byte("k"), []byte("v")}
	m := MakeCommand(args)
	got, ok := ParseCommand(m)
	if !ok {
		t.Fatal("expected ok")
	}
	if len(got) != len(args) {
		t.Fatalf("length mismatch")
	}
	for i := range args {
		if string(got[i]) != string(args[i]) {
			t.Fatalf("arg %d mismatch: got %q want %q", i, got[i], args[i])
		}
	}

	if _, ok := ParseCommand(NewInteger(1)); ok {
		t.Fatal("expected not ok for non-array message")
	}
	if _, ok := ParseCommand(NewArray([]*Message{NewInteger(1)})); ok {
		t.Fatal("expected not ok for array of non-bulk-strings")
	}
}

func TestSerializedSizeFuzz(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		m := randomMessage(rnd, 3)
		if got, want := SerializedSize(m), len(Serialize(m)); got != want {
			t.Fatalf("serialized_size mismatch for %+v: got %d want %d", m, got, want)
		}
	}
}

func randomMessage(rnd *rand.Rand, depth int) *Message {
	if depth <= 0 {
		return NewInteger(rnd.Int63())
	}
	switch rnd.Intn(6) {
	case 0:
		return NewSimpleString(randomBytes(rnd))
	case 1:
		return NewError(randomBytes(rnd))
	case 2:
		return NewInteger(rnd.Int63())
	case 3:
		return NewBulkString(randomBytes(rnd))
	case 4:
		return NewNull()
	default:
		n := rnd.Intn(4)
		elems := make([]*Message, n)
		for i := range elems {
			elems[i] = randomMessage(rnd, depth-1)
		}
		return NewArray(elems)
	}
}

func randomBytes(rnd *rand.Rand) []byte {
	n := rnd.Intn(16)
	b := make([]byte, n)
	rnd.Read(b)
	return b
}
